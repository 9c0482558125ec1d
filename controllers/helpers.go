package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/dto"
	"github.com/polgen/storebackend/middleware"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}

// bindJSON binds and validates the body into v. On failure it records a
// validation error and returns false.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(apperror.NewValidation(dto.ValidationMessage(err)))
		return false
	}
	return true
}

// currentUser returns the authenticated user or records a 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperror.NewUnauthorized("Unauthorized"))
		return nil, false
	}
	return user, true
}

// createAccount hashes password and inserts u. A taken email comes back as
// a conflict; the unique index decides, there is no read beforehand.
func createAccount(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, u *models.User, password string) error {
	hash, err := hasher.Hash(password)
	if err != nil {
		return apperror.NewDependency(err)
	}
	u.PasswordHash = hash

	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return apperror.NewConflict("Email already exists.")
		}
		return apperror.NewDependency(err)
	}
	return nil
}

func listResponse(c *gin.Context, items any, page, limit int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
