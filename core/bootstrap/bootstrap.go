// Package bootstrap prepares process-wide infrastructure before the bot
// starts: logging first, then the catalog database when one is configured.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/celebguess/core/config"
	coredatabase "github.com/m3rciful/celebguess/core/database"
	"github.com/m3rciful/celebguess/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the core defaults.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error

	Modules Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil unless the catalog is read from the database.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, for the database catalog source, connects,
// applies migrations and runs the seeders in order. The pool is closed again
// when a later step fails.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()
	if err := opts.LoggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init: %w", err)
	}

	if cfg.Game.CatalogSource != coreconfig.CatalogDatabase {
		logger.DB.Debug("database skipped",
			slog.String("event", "db.skip"),
			slog.String("status", "skip"),
			slog.String("catalog_source", cfg.Game.CatalogSource),
		)
		return &Result{}, nil
	}

	start := time.Now()
	db, err := opts.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := prepare(ctx, db, cfg.Database, opts); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.DB.Info("database ready",
		slog.String("event", "db.ready"),
		slog.String("status", "ok"),
		slog.Int("seeders", len(opts.Modules.Seeders)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &Result{DB: db}, nil
}

func prepare(ctx context.Context, db *sqlx.DB, dbCfg coredatabase.Config, opts Options) error {
	if err := opts.Migrate(ctx, dbCfg); err != nil {
		return fmt.Errorf("bootstrap: migrations: %w", err)
	}
	for i, s := range opts.Modules.Seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, db); err != nil {
			return fmt.Errorf("bootstrap: seeder %d: %w", i, err)
		}
	}
	return nil
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}
