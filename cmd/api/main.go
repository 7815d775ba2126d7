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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/guardforce-api/api/swagger"
	"github.com/noah-isme/guardforce-api/internal/handler"
	"github.com/noah-isme/guardforce-api/internal/repository"
	"github.com/noah-isme/guardforce-api/internal/service"
	"github.com/noah-isme/guardforce-api/pkg/cache"
	"github.com/noah-isme/guardforce-api/pkg/config"
	"github.com/noah-isme/guardforce-api/pkg/database"
	"github.com/noah-isme/guardforce-api/pkg/jobs"
	"github.com/noah-isme/guardforce-api/pkg/logger"
	"github.com/noah-isme/guardforce-api/pkg/storage"
)

// @title GuardForce API
// @version 1.0.0
// @description Back-office API for security staff onboarding, sites and beats
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Registration.StatsCache {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, "guardforce")
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Registration.StatsCacheTTL, logr, cacheRepo != nil)

	users := repository.NewUserRepository(db)
	registrations := repository.NewRegistrationRequestRepository(db)
	profiles := repository.NewProfileRepository(db)
	locations := repository.NewLocationRepository(db)
	beats := repository.NewBeatRepository(db)
	admins := repository.NewAdminRepository(db)

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedMIMEs)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}
	signer := storage.NewURLSigner(cfg.JWT.Secret, cfg.Uploads.URLTTL)

	sender := service.NewCredentialSender(cfg.Mail, logr)
	regOpts := []service.RegistrationServiceOption{
		service.WithRegistrationCache(cacheSvc, cfg.Registration.StatsCacheTTL),
		service.WithRegistrationMetrics(metrics),
		service.WithPhotoStorage(files, signer, cfg.APIPrefix+"/files"),
		service.WithPasswordPrefix(cfg.Registration.PasswordPrefix),
	}

	var redelivery *jobs.Queue
	if cfg.Mail.Retry.Enabled {
		redelivery = jobs.NewQueue("credential-redelivery", service.CredentialRedeliveryHandler(sender, metrics), jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Mail.Retry.Attempts,
			RetryDelay: cfg.Mail.Retry.Delay,
			Logger:     logr,
			OnDrop: func(job jobs.Job, err error) {
				logr.Error("credential redelivery abandoned", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			},
		})
		redelivery.Start(ctx)
		defer redelivery.Stop()
		regOpts = append(regOpts, service.WithCredentialRetry(redelivery))
	}

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "guardforce-api",
	})
	userSvc := service.NewUserService(users, logr)
	registrationSvc := service.NewRegistrationService(
		registrations,
		users,
		profiles,
		locations,
		service.NewEmployeeIDGenerator(users, metrics),
		sender,
		users,
		validate,
		logr,
		regOpts...,
	)
	locationSvc := service.NewLocationService(locations, users, validate, logr)
	beatSvc := service.NewBeatService(beats, locations, service.NewBeatCodeGenerator(beats, metrics), users, validate, logr)
	adminSvc := service.NewAdminService(admins, users, locations, service.NewStaffIDGenerator(admins, metrics), users, validate, logr)

	if created, err := userSvc.EnsureDirector(ctx, cfg.Bootstrap); err != nil {
		logr.Error("failed to bootstrap director", zap.Error(err))
	} else if created {
		logr.Info("bootstrap director created", zap.String("email", cfg.Bootstrap.DirectorEmail))
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Location:     handler.NewLocationHandler(locationSvc),
		Beat:         handler.NewBeatHandler(beatSvc),
		Admin:        handler.NewAdminHandler(adminSvc),
		User:         handler.NewUserHandler(userSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
		Files:        handler.NewFileHandler(files, signer),
	}, handler.RouterDeps{
		Tokens:  authSvc,
		Metrics: metrics,
		Audit:   users,
		Logger:  logr,
	})

	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
