package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/society-sync-api/api/swagger"
	"github.com/noah-isme/society-sync-api/internal/handler"
	"github.com/noah-isme/society-sync-api/internal/repository"
	"github.com/noah-isme/society-sync-api/internal/router"
	"github.com/noah-isme/society-sync-api/internal/service"
	"github.com/noah-isme/society-sync-api/pkg/cache"
	"github.com/noah-isme/society-sync-api/pkg/config"
	"github.com/noah-isme/society-sync-api/pkg/database"
	"github.com/noah-isme/society-sync-api/pkg/logger"
	"github.com/noah-isme/society-sync-api/pkg/storage"
)

// @title Society Sync API
// @version 1.0.0
// @description Campus society portal: form templates, responses, events and accounts.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("database migrations applied")
	}

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(nil)
	cacheEnabled := cfg.Cache.Enabled
	if cacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(client)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheEnabled)

	images, err := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.PublicPath, cfg.Uploads.MaxBytes)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}
	uploads := storage.NewCleanupQueue(images, logr)
	uploads.Start(context.Background())

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	societyRepo := repository.NewSocietyRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	eventRepo := repository.NewEventRepository(db)
	templateRepo := repository.NewFormTemplateRepository(db)
	responseRepo := repository.NewFormResponseRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, societyRepo, uploads, auditRepo, validate, logr, cfg.Accounts.DefaultAvatarURL)
	approvalSvc := service.NewAdminApprovalService(userRepo, societyRepo, cacheSvc, logr)
	societySvc := service.NewSocietyService(societyRepo, cacheSvc, logr)
	eventSvc := service.NewEventService(eventRepo, societyRepo, uploads, validate, logr, cfg.Events.Retention)
	templateSvc := service.NewFormTemplateService(templateRepo, userRepo, societyRepo, cacheSvc, metrics, logr)
	responseSvc := service.NewFormResponseService(responseRepo, templateRepo, societyRepo, service.NewResponseValidator(validate), metrics, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if cacheEnabled {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	engine := router.New(router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		Metrics: metrics,
		Tokens:  authSvc,
		Audit:   auditRepo,

		FormTemplates: handler.NewFormTemplateHandler(templateSvc),
		FormResponses: handler.NewFormResponseHandler(responseSvc),
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Secure:        cfg.Env == config.EnvProduction,
			AccessMaxAge:  cfg.JWT.Expiration,
			RefreshMaxAge: cfg.JWT.RefreshExpiration,
		}),
		Users:         handler.NewUserHandler(userSvc),
		Societies:     handler.NewSocietyHandler(societySvc, eventSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Admin:         handler.NewAdminHandler(approvalSvc),
		Observability: handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-done
	logr.Info("shutting down the server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("failed to shutdown server", zap.Error(err))
	}
	uploads.Stop()
	logr.Info("server shutdown successfully")
}
