package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/config"
	"github.com/jivhala-motors/backoffice/internal/repository"
	"github.com/jivhala-motors/backoffice/internal/repository/postgres"
	"github.com/jivhala-motors/backoffice/internal/repository/sqlite"
)

// Repositories bundles the concrete repositories behind one handle together
// with the lifecycle of the underlying connection.
type Repositories struct {
	Users    repository.UserRepository
	Vehicles repository.VehicleRepository

	closer  func() error
	health  func(ctx context.Context) error
	migrate func(ctx context.Context) error
}

// Close releases the underlying database connection.
func (r *Repositories) Close() error {
	return r.closer()
}

// Health checks the underlying database connection.
func (r *Repositories) Health(ctx context.Context) error {
	return r.health(ctx)
}

// Migrate applies pending schema migrations.
func (r *Repositories) Migrate(ctx context.Context) error {
	return r.migrate(ctx)
}

// New opens the database named by cfg.Driver and builds the repositories
// on top of it. The schema is not migrated automatically; call Migrate.
func New(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Repositories, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:    postgres.NewUserRepository(db),
			Vehicles: postgres.NewVehicleRepository(db),
			closer:   db.Close,
			health:   db.Health,
			migrate:  db.Migrate,
		}, nil

	case "sqlite":
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.CacheSize != 0 {
			sqliteCfg.CacheSize = cfg.CacheSize
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}

		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:    sqlite.NewUserRepository(db),
			Vehicles: sqlite.NewVehicleRepository(db),
			closer:   db.Close,
			health:   db.Health,
			migrate:  db.Migrate,
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
