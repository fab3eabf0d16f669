package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/m3rciful/celebguess/core/logger"
)

const (
	selectCelebrities = `SELECT name FROM celebrities WHERE enabled ORDER BY id`
	countCelebrities  = `SELECT count(*) FROM celebrities`
	insertCelebrity   = `INSERT INTO celebrities (name) VALUES (:name) ON CONFLICT DO NOTHING`
)

// Selecter is the part of *sqlx.DB the catalog reader needs.
type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type celebrityRow struct {
	Name string `db:"name"`
}

// LoadCelebrities returns the enabled celebrity names in insertion order.
func LoadCelebrities(ctx context.Context, db Selecter) ([]string, error) {
	start := time.Now()
	var names []string
	if err := db.SelectContext(ctx, &names, selectCelebrities); err != nil {
		logger.DB.Error("catalog load failed",
			slog.String("event", "db.catalog"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("load celebrities: %w", err)
	}
	logger.DB.Info("catalog loaded",
		slog.String("event", "db.catalog"),
		slog.String("status", "ok"),
		slog.Int("celebrities", len(names)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return names, nil
}

// SeedCelebrities fills an empty celebrities table with names and reports how many rows were inserted.
// A table that already holds rows is left alone.
func SeedCelebrities(ctx context.Context, db *sqlx.DB, names []string) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed celebrities: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	if err := tx.GetContext(ctx, &existing, countCelebrities); err != nil {
		return 0, fmt.Errorf("seed celebrities: count: %w", err)
	}
	if existing > 0 || len(names) == 0 {
		logger.SEED.Debug("seed skipped",
			slog.String("event", "db.seed"),
			slog.String("status", "skip"),
			slog.Int("existing", existing),
		)
		return 0, nil
	}

	rows := lo.Map(names, func(n string, _ int) celebrityRow { return celebrityRow{Name: n} })
	res, err := tx.NamedExecContext(ctx, insertCelebrity, rows)
	if err != nil {
		return 0, fmt.Errorf("seed celebrities: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed celebrities: commit: %w", err)
	}

	inserted, _ := res.RowsAffected()
	logger.SEED.Info("catalog seeded",
		slog.String("event", "db.seed"),
		slog.String("status", "ok"),
		slog.Int64("inserted", inserted),
	)
	return int(inserted), nil
}
