// Package storage opens the repositories for the configured database driver.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/auth"
	"github.com/grownex/grownex/internal/database"
	"github.com/grownex/grownex/internal/featureflags"
)

// Stores holds the repositories of one backend.
type Stores struct {
	Driver   database.Driver
	Analyses analysis.Repository
	Users    auth.UserRepository
	Flags    featureflags.Repository

	pool *pgxpool.Pool
	db   *sql.DB
}

// Open connects to the backend named by cfg.Driver and prepares its schema.
//
// SQLite only stores analyses; accounts and flags stay in memory there, which
// suits single node and local setups.
func Open(ctx context.Context, cfg database.Config, logger zerolog.Logger) (*Stores, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case database.DriverPostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("postgres connected")

		return &Stores{
			Driver:   cfg.Driver,
			Analyses: analysis.NewPostgresRepository(pool),
			Users:    auth.NewPostgresUserRepository(pool),
			Flags:    featureflags.NewPostgresRepository(pool),
			pool:     pool,
		}, nil

	case database.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("sqlite opened")
		logger.Warn().Msg("accounts and feature flags are kept in memory with the sqlite driver")

		return &Stores{
			Driver:   cfg.Driver,
			Analyses: analysis.NewSQLiteRepository(db),
			Users:    auth.NewInMemoryUserRepository(),
			Flags:    featureflags.NewInMemoryRepository(),
			db:       db,
		}, nil

	case database.DriverMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")

		return &Stores{
			Driver:   cfg.Driver,
			Analyses: analysis.NewInMemoryRepository(),
			Users:    auth.NewInMemoryUserRepository(),
			Flags:    featureflags.NewInMemoryRepository(),
		}, nil
	}

	return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
