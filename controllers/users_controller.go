package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/dto"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/middleware"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
	"github.com/polgen/storebackend/utils"
)

type UserController struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	log    logging.Logger
}

func NewUserController(users repository.UserRepository, hasher auth.PasswordHasher, log logging.Logger) *UserController {
	return &UserController{users: users, hasher: hasher, log: log.With("component", "users")}
}

// GET /users/me
func (u *UserController) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// POST /users/me/password
func (u *UserController) ChangeMyPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var body dto.ChangeMyPasswordDTO
		if !bindJSON(c, &body) {
			return
		}

		if !u.hasher.Compare(user.PasswordHash, body.CurrentPassword) {
			_ = c.Error(apperror.NewUnauthorized("Current password is incorrect."))
			return
		}

		hash, err := u.hasher.Hash(body.NewPassword)
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}
		ctx := c.Request.Context()
		if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}

		u.log.Info(ctx, "password changed", "userID", user.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
	}
}

// GET /admin/users
func (u *UserController) ListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := utils.Pagination(c.Query("page"), c.Query("limit"), defaultPageSize, maxPageSize)

		items, total, err := u.users.List(c.Request.Context(), page, limit)
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}
		if items == nil {
			items = []models.User{}
		}
		listResponse(c, items, page, limit, total)
	}
}

// POST /admin/users
func (u *UserController) CreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.AdminCreateUserDTO
		if !bindJSON(c, &body) {
			return
		}
		ctx := c.Request.Context()

		user := &models.User{
			Username: strings.TrimSpace(body.Username),
			Email:    strings.TrimSpace(body.Email),
			Phone:    strings.TrimSpace(body.Phone),
			Address:  strings.TrimSpace(body.Address),
			Role:     models.Role(body.Role),
		}
		if err := createAccount(ctx, u.users, u.hasher, user, body.Password); err != nil {
			_ = c.Error(err)
			return
		}

		if admin, ok := middleware.CurrentUser(c); ok {
			u.log.Info(ctx, "user created by admin", "userID", user.ID.Hex(), "role", user.Role, "adminID", admin.ID.Hex())
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully.",
			"user":    user,
		})
	}
}
