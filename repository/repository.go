// Package repository persists users and products. Controllers depend on the
// interfaces here; the MongoDB implementations live next to them.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/polgen/storebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type UserRepository interface {
	// Create inserts u, assigning an ID when it has none. It returns
	// ErrDuplicateKey when the email is already taken.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	List(ctx context.Context, page, limit int) ([]models.User, int64, error)

	SetResetToken(ctx context.Context, id bson.ObjectID, hash string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id bson.ObjectID) error
	// UpdatePassword stores a new hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id bson.ObjectID, hash string) error
	// ConsumeResetToken sets a new password hash only if the user still holds
	// tokenHash and it has not expired at now, clearing the reset fields in
	// the same write. It returns ErrNotFound when nothing matched, so a token
	// can be used once even under concurrent requests.
	ConsumeResetToken(ctx context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) error
	// ClearExpiredResetTokens removes reset tokens whose expiry is not after now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type ProductRepository interface {
	// Create returns ErrDuplicateKey when the slug is taken.
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, id bson.ObjectID, u models.ProductUpdate) (*models.Product, error)
	AddImages(ctx context.Context, id bson.ObjectID, urls []string) (*models.Product, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}
