package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftlink/identity-service/internal/api"
	"github.com/craftlink/identity-service/internal/core/service"
	"github.com/craftlink/identity-service/internal/core/token"
	mongodb "github.com/craftlink/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/craftlink/identity-service/internal/infrastructure/db/redis"
	"github.com/craftlink/identity-service/internal/infrastructure/email"
	"github.com/craftlink/identity-service/internal/pkg/config"
	"github.com/craftlink/identity-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	mailer, err := email.NewDispatcher(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("smtp dispatcher setup failed")
	}

	// --- Repositories & services ---
	users := mongodb.NewUserRepository(db)
	verificationTokens := mongodb.NewVerificationTokenRepository(db)
	refreshTokens := mongodb.NewRefreshTokenRepository(db)
	locker := redisdb.NewUserLocker(rdb)

	issuer := token.NewIssuer(token.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.Tokens.AccessTTL,
		RefreshTTL: cfg.Tokens.RefreshTTL,
		ResetTTL:   cfg.Tokens.ResetTTL,
		OTPTTL:     cfg.Tokens.OTPTTL,
	})

	sessions := service.NewSessionService(users, refreshTokens, issuer, log)
	svc := api.Services{
		Verification: service.NewVerificationService(users, verificationTokens, refreshTokens, mailer, locker, issuer, cfg.FrontendURL, log),
		Sessions:     sessions,
		Resets:       service.NewPasswordResetService(users, verificationTokens, mailer, issuer, cfg.FrontendURL, log),
		OAuth:        service.NewOAuthService(users, sessions, log),
		Admin:        service.NewAdminService(users, log),
	}

	cleanup := service.NewCleanupService(users, verificationTokens, refreshTokens,
		cfg.Cleanup.Interval, cfg.Cleanup.PendingRetention, log)
	cleanup.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(svc, db, rdb, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("identity service stopped")
}
