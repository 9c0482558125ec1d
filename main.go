package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/config"
	"github.com/polgen/storebackend/controllers"
	"github.com/polgen/storebackend/database"
	"github.com/polgen/storebackend/email"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/ratelimit"
	"github.com/polgen/storebackend/repository"
	"github.com/polgen/storebackend/utils"
)

const brand = "Polgen"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(os.Stderr, "error").Error(context.Background(), "config", "error", err)
		os.Exit(1)
	}
	log := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	db := client.Database(cfg.DatabaseName)

	users := repository.NewMongoUserRepository(db)
	products := repository.NewMongoProductRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := products.EnsureIndexes(ctx); err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	if err := utils.SeedAdminUser(ctx, users, hasher, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		return err
	}

	var registerLimiter, loginLimiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		registerLimiter = ratelimit.NewRedisLimiter(rdb, "ratelimit:register", cfg.RateLimitMax, cfg.RateLimitWindow)
		loginLimiter = ratelimit.NewRedisLimiter(rdb, "ratelimit:login", cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		log.Warn(ctx, "REDIS_URL not set, rate limiting disabled")
	}

	if !cfg.Email.Enabled() {
		log.Warn(ctx, "SMTP not configured, outgoing email will fail")
	}
	mailer := email.NewDispatcher(email.NewSMTPTransport(cfg.Email), brand, cfg.Email.From)

	var images utils.ImageStore
	r2, err := utils.NewR2Client(ctx, cfg.Storage)
	switch {
	case errors.Is(err, utils.ErrStorageNotConfigured):
		log.Warn(ctx, "object storage not configured, image upload disabled")
	case err != nil:
		return err
	default:
		images = r2
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := controllers.NewRouter(controllers.Dependencies{
		Users:           users,
		Products:        products,
		Hasher:          hasher,
		Tokens:          auth.NewTokenService(cfg.JWTSecret, cfg.SessionTokenTTL),
		Resets:          auth.NewResetTokenService(cfg.ResetTokenTTL),
		Mailer:          mailer,
		Images:          images,
		ImageValidator:  utils.NewImageValidator(cfg.Storage.MaxUploadMB),
		MaxImages:       cfg.Storage.MaxImages,
		RegisterLimiter: registerLimiter,
		LoginLimiter:    loginLimiter,
		FrontendURL:     cfg.FrontendURL,
		ContactInbox:    cfg.Email.Inbox,
		AllowedOrigins:  cfg.AllowedOrigins,
		Log:             log,
	})
	if err != nil {
		return err
	}

	go utils.NewResetTokenSweeper(users, cfg.ResetSweepInterval, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
