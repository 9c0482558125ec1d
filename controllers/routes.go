package controllers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/dto"
	"github.com/polgen/storebackend/email"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/middleware"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/ratelimit"
	"github.com/polgen/storebackend/repository"
	"github.com/polgen/storebackend/utils"
)

// Dependencies is everything the HTTP layer needs. Images, RegisterLimiter
// and LoginLimiter may be nil.
type Dependencies struct {
	Users    repository.UserRepository
	Products repository.ProductRepository

	Hasher auth.PasswordHasher
	Tokens *auth.TokenService
	Resets *auth.ResetTokenService
	Mailer email.Notifier

	Images         utils.ImageStore
	ImageValidator *utils.FileValidator
	MaxImages      int

	RegisterLimiter ratelimit.Limiter
	LoginLimiter    ratelimit.Limiter

	FrontendURL    string
	ContactInbox   string
	AllowedOrigins []string

	Log logging.Logger
}

func NewRouter(d Dependencies) (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}
	r := gin.New()

	allowedOrigins := make(map[string]bool, len(d.AllowedOrigins))
	for _, o := range d.AllowedOrigins {
		allowedOrigins[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowedOrigins[origin] },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.ErrorHandler(d.Log))

	authCtl := NewAuthController(AuthControllerConfig{
		Users:        d.Users,
		Hasher:       d.Hasher,
		Tokens:       d.Tokens,
		Resets:       d.Resets,
		Mailer:       d.Mailer,
		FrontendURL:  d.FrontendURL,
		ContactInbox: d.ContactInbox,
		Log:          d.Log,
	})
	userCtl := NewUserController(d.Users, d.Hasher, d.Log)
	productCtl := NewProductController(d.Products, d.Images, d.ImageValidator, d.MaxImages, d.Log)

	requireAuth := middleware.RequireAuth(d.Tokens, d.Users)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/contact", authCtl.Contact())
	r.POST("/forgot-password", authCtl.ForgotPassword())
	r.POST("/reset-password", authCtl.ResetPassword())
	r.POST("/register", middleware.RateLimit(d.RegisterLimiter, d.Log), authCtl.Register())
	r.POST("/login", middleware.RateLimit(d.LoginLimiter, d.Log), authCtl.Login())

	r.GET("/products", productCtl.List())
	r.GET("/products/:id", productCtl.Get())
	r.GET("/products/slug/:slug", productCtl.GetBySlug())

	products := r.Group("/products", requireAuth)
	{
		products.POST("", productCtl.Create())
		products.PUT("/:id", productCtl.Update())
		products.DELETE("/:id", productCtl.Delete())
		products.POST("/:id/images", productCtl.UploadImages())
	}

	me := r.Group("/users/me", requireAuth)
	{
		me.GET("", userCtl.Me())
		me.POST("/password", userCtl.ChangeMyPassword())
	}

	admin := r.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", userCtl.ListUsers())
		admin.POST("/users", userCtl.CreateUser())
	}

	return r, nil
}
