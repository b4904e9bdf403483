// @title        Auth Service API
// @version      1.0
// @description  Authentication, session and role management service.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/app"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
	"github.com/99minutos/auth-service/internal/pkg/config"
	"github.com/99minutos/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-service",
		Version: version,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("auth service stopped")
	}
}

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	if cfg.Store == config.StoreMemory {
		if err := app.Seed(ctx, stores, hasher, app.SeedInput{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminPassword: cfg.Seed.AdminPassword,
		}, log); err != nil {
			return err
		}
	}

	// --- Account events ---
	var sink queue.Sink = queue.NewLogSink(log)
	if cfg.AMQP.URL != "" {
		amqpSink, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return err
		}
		defer amqpSink.Close()
		sink = amqpSink
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("publishing account events to amqp")
	}
	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, sink, logger.Component(log, "events"))
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// --- Core services ---
	signer, err := service.NewSigner(cfg.Token.Secret, cfg.Token.Algorithm)
	if err != nil {
		return err
	}
	issuer := service.NewTokenIssuer(stores.Tokens, signer, cfg.Token.RefreshTTL(), time.Now)
	validator := service.NewTokenValidator(stores.Tokens, signer, time.Now)
	gate := service.NewGate(validator, stores.Users, log)

	auth, err := service.NewAuthService(stores.Users, hasher, issuer, validator, dispatcher, service.AuthOptions{
		AccessTTL:     cfg.Token.AccessTTL(),
		RotateRefresh: cfg.Token.RotateRefresh,
	}, log)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Auth:   auth,
		Users:  service.NewUserService(stores.Users, gate, hasher, dispatcher, log),
		Roles:  service.NewRoleService(stores.Roles, stores.Users, gate, dispatcher, log),
		Gate:   gate,
		Health: stores.Health,
		Log:    log,
	}

	// --- Rate limiting ---
	if cfg.RateLimit.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Limiter = redis.NewFixedWindowLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		deps.Health["redis"] = redis.Pinger(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiting enabled")
	}

	janitor := service.NewTokenJanitor(stores.Tokens, cfg.Token.GCInterval, logger.Component(log, "token_janitor"))
	go janitor.Run(ctx)

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("auth service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
