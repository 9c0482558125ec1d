package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/dto"
	"github.com/polgen/storebackend/email"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
)

const (
	forgotPasswordMessage = "If the email exists, a reset link has been sent."
	invalidCredentials    = "Invalid email or password."
	invalidResetToken     = "Invalid or expired token."

	resetMailTimeout = time.Minute
)

type AuthController struct {
	users       repository.UserRepository
	hasher      auth.PasswordHasher
	tokens      TokenIssuer
	resets      *auth.ResetTokenService
	mailer      email.Notifier
	frontendURL string
	inbox       string
	log         logging.Logger

	// compared against when the email is unknown so that both login
	// failures cost one bcrypt comparison
	dummyHash string
}

type AuthControllerConfig struct {
	Users        repository.UserRepository
	Hasher       auth.PasswordHasher
	Tokens       TokenIssuer
	Resets       *auth.ResetTokenService
	Mailer       email.Notifier
	FrontendURL  string
	ContactInbox string
	Log          logging.Logger
}

func NewAuthController(cfg AuthControllerConfig) *AuthController {
	dummy, _ := cfg.Hasher.Hash("not-a-real-password-0")
	return &AuthController{
		users:       cfg.Users,
		hasher:      cfg.Hasher,
		tokens:      cfg.Tokens,
		resets:      cfg.Resets,
		mailer:      cfg.Mailer,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		inbox:       cfg.ContactInbox,
		log:         cfg.Log.With("component", "auth"),
		dummyHash:   dummy,
	}
}

// POST /register
func (a *AuthController) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if !bindJSON(c, &body) {
			return
		}
		body.Normalize()
		ctx := c.Request.Context()

		user := &models.User{
			Username: body.Username,
			Email:    body.Email,
			Phone:    body.Phone,
			Address:  body.Address,
			Role:     models.RoleOrDefault(body.Role),
		}
		if err := createAccount(ctx, a.users, a.hasher, user, body.Password); err != nil {
			_ = c.Error(err)
			return
		}

		// The account stands even if the welcome email cannot be sent.
		err := a.mailer.Send(ctx, email.KindRegistration, user.Email, email.RegistrationData{
			Username: user.Username,
			Email:    user.Email,
		})
		if err != nil {
			a.log.Warn(ctx, "registration email not sent", "userID", user.ID.Hex(), "error", err)
		}

		a.log.Info(ctx, "user registered", "userID", user.ID.Hex(), "role", user.Role)
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully.",
			"user":    user,
		})
	}
}

// POST /login
func (a *AuthController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if !bindJSON(c, &body) {
			return
		}
		ctx := c.Request.Context()

		user, err := a.users.FindByEmail(ctx, strings.TrimSpace(body.Email))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			a.hasher.Compare(a.dummyHash, body.Password)
			_ = c.Error(apperror.NewUnauthorized(invalidCredentials))
			return
		case err != nil:
			_ = c.Error(apperror.NewDependency(err))
			return
		}

		if !a.hasher.Compare(user.PasswordHash, body.Password) {
			_ = c.Error(apperror.NewUnauthorized(invalidCredentials))
			return
		}

		token, err := a.tokens.Issue(user.ID.Hex(), string(user.Role))
		if err != nil {
			_ = c.Error(apperror.NewInternal(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful.",
			"token":   token,
			"user":    user,
		})
	}
}

// POST /forgot-password
//
// The response never depends on whether the email is registered, neither in
// its body nor in its timing: the lookup and the mail run after it is written.
func (a *AuthController) ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ForgotPasswordDTO
		bindErr := c.ShouldBindJSON(&body)
		c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})

		if bindErr != nil {
			return
		}
		if addr := strings.TrimSpace(body.Email); addr != "" {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), resetMailTimeout)
			go func() {
				defer cancel()
				a.sendResetLink(ctx, addr)
			}()
		}
	}
}

func (a *AuthController) sendResetLink(ctx context.Context, addr string) {
	user, err := a.users.FindByEmail(ctx, addr)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.log.Error(ctx, "forgot password lookup failed", "error", err)
		}
		return
	}

	raw, hash, expiry, err := a.resets.Issue()
	if err != nil {
		a.log.Error(ctx, "reset token generation failed", "error", err)
		return
	}
	if err := a.users.SetResetToken(ctx, user.ID, hash, expiry); err != nil {
		a.log.Error(ctx, "reset token not stored", "userID", user.ID.Hex(), "error", err)
		return
	}

	err = a.mailer.Send(ctx, email.KindPasswordReset, user.Email, email.PasswordResetData{
		Link:             a.frontendURL + "/reset_password/" + raw,
		ExpiresInMinutes: int(a.resets.TTL().Minutes()),
	})
	if err != nil {
		a.log.Warn(ctx, "password reset email not sent", "userID", user.ID.Hex(), "error", err)
	}
}

// POST /reset-password
func (a *AuthController) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ResetPasswordDTO
		if !bindJSON(c, &body) {
			return
		}
		ctx := c.Request.Context()

		user, err := a.users.FindByResetTokenHash(ctx, a.resets.Hash(body.Token))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			_ = c.Error(apperror.NewValidation(invalidResetToken))
			return
		case err != nil:
			_ = c.Error(apperror.NewDependency(err))
			return
		}

		if user.ResetTokenHash == nil || user.ResetTokenExpiry == nil ||
			!a.resets.Validate(body.Token, *user.ResetTokenHash, *user.ResetTokenExpiry) {
			if user.ResetTokenExpiry != nil && a.resets.Expired(*user.ResetTokenExpiry) {
				if err := a.users.ClearResetToken(ctx, user.ID); err != nil {
					a.log.Warn(ctx, "expired reset token not cleared", "userID", user.ID.Hex(), "error", err)
				}
			}
			_ = c.Error(apperror.NewValidation(invalidResetToken))
			return
		}

		hash, err := a.hasher.Hash(body.NewPassword)
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}
		err = a.users.ConsumeResetToken(ctx, user.ID, *user.ResetTokenHash, hash, a.resets.Now())
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// another request used or replaced the token first
			_ = c.Error(apperror.NewValidation(invalidResetToken))
			return
		case err != nil:
			_ = c.Error(apperror.NewDependency(err))
			return
		}

		a.log.Info(ctx, "password reset", "userID", user.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully."})
	}
}

// POST /contact
func (a *AuthController) Contact() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ContactDTO
		if !bindJSON(c, &body) {
			return
		}

		err := a.mailer.Send(c.Request.Context(), email.KindContact, a.inbox, email.ContactData{
			Name:    strings.TrimSpace(body.Name),
			Email:   strings.TrimSpace(body.Email),
			Message: body.Message,
		})
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully!"})
	}
}
