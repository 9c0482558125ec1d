package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
)

// SeedAdminUser creates the admin account named by ADMIN_EMAIL and
// ADMIN_PASSWORD when it does not exist yet. Empty credentials skip seeding.
func SeedAdminUser(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, email, password string, log logging.Logger) error {
	if email == "" || password == "" {
		log.Info(ctx, "admin seeding skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	err = users.Create(ctx, admin)
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		log.Info(ctx, "admin user already exists", "email", email)
		return nil
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info(ctx, "admin user seeded", "email", email, "userID", admin.ID.Hex())
	return nil
}
