package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const currentUserKey = "currentUser"

// TokenVerifier is the part of auth.TokenService the middleware needs.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserFinder is the part of the user store the middleware needs.
type UserFinder interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// RequireAuth verifies the bearer token and attaches the stored user to the
// request. Role and identity always come from the store, not from claims.
func RequireAuth(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperror.NewUnauthorized("Unauthorized: Missing authorization header"))
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			abort(c, apperror.NewUnauthorized("Unauthorized: Missing token"))
			return
		}

		claims, err := tokens.Verify(token)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			abort(c, apperror.NewUnauthorized("Unauthorized: Token expired"))
			return
		case err != nil:
			abort(c, apperror.NewUnauthorized("Unauthorized: Invalid token"))
			return
		}

		id, err := bson.ObjectIDFromHex(claims.UserID())
		if err != nil {
			abort(c, apperror.NewUnauthorized("Unauthorized: Invalid token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			abort(c, apperror.NewUnauthorized("Unauthorized: Invalid token"))
			return
		case err != nil:
			abort(c, apperror.NewDependency(err))
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireRole must run after RequireAuth. It is the only role gate.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperror.NewUnauthorized("Unauthorized"))
			return
		}
		if user.Role != role {
			abort(c, apperror.NewForbidden("Forbidden: Insufficient privileges"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// SetCurrentUser attaches user to the request context.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, err *apperror.AppError) {
	_ = c.Error(err)
	c.Abort()
}
