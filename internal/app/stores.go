// Package app assembles the storage backends selected by configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/auth-service/internal/infrastructure/db/postgres"
	"github.com/99minutos/auth-service/internal/pkg/config"
)

const disconnectTimeout = 5 * time.Second

// Stores is the credential store behind the core services.
type Stores struct {
	Users  ports.UserRepository
	Roles  ports.RoleRepository
	Tokens ports.RefreshTokenRepository

	// Health holds readiness checks keyed by dependency name.
	Health map[string]handler.Pinger

	closers []func()
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStores connects to the backend named by cfg.Store and makes sure its
// indexes or schema exist.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	s := &Stores{Health: map[string]handler.Pinger{}}

	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Error().Err(err).Msg("mongodb disconnect failed")
			}
		})
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			s.Close()
			return nil, err
		}
		s.Users = mongodb.NewUserRepository(db)
		s.Roles = mongodb.NewRoleRepository(db)
		s.Tokens = mongodb.NewRefreshTokenRepository(db)
		s.Health["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("postgres close failed")
			}
		})
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			s.Close()
			return nil, err
		}
		s.Users = postgres.NewUserRepository(db)
		s.Roles = postgres.NewRoleRepository(db)
		s.Tokens = postgres.NewRefreshTokenRepository(db)
		s.Health["postgres"] = db.PingContext
		log.Info().Msg("connected to postgres")

	case config.StoreMemory:
		store := memory.NewStore()
		s.Users = store.Users()
		s.Roles = store.Roles()
		s.Tokens = store.Tokens()
		log.Warn().Msg("using in-memory store; data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store)
	}

	return s, nil
}
