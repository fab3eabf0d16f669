package database

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/samber/lo"

	"github.com/m3rciful/celebguess/core/logger"
)

const readyTimeout = 30 * time.Second

// migrationFile is one "<version>_<name>.up.sql" file.
type migrationFile struct {
	name    string
	version uint64
}

// migrationSet is the up migrations found on disk, ordered by version.
type migrationSet []migrationFile

func scanMigrations(dir string) migrationSet {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var set migrationSet
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		set = append(set, migrationFile{name: e.Name(), version: fileVersion(e.Name())})
	}
	slices.SortFunc(set, func(a, b migrationFile) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.name, b.name))
	})
	return set
}

// fileVersion reads the numeric prefix of a migration file; 0 when absent.
func fileVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// between returns the files with from < version <= to.
func (s migrationSet) between(from, to uint64) migrationSet {
	return lo.Filter(s, func(f migrationFile, _ int) bool {
		return f.version > from && f.version <= to
	})
}

func (s migrationSet) names() []string {
	return lo.Map(s, func(f migrationFile, _ int) string { return f.name })
}

// fileAttrs summarizes a list of file names for a log line.
func fileAttrs(names []string) []any {
	args := []any{slog.Int("files_total", len(names))}
	preview, truncated := logger.SummarizeStrings(names, 6)
	if preview != "" {
		args = append(args, slog.String("files_preview", preview))
	}
	if truncated {
		args = append(args, slog.Bool("files_truncated", true))
	}
	return args
}

// RunMigrations waits for Postgres and applies every pending up migration
// from cfg.MigrationsDir.
func RunMigrations(ctx context.Context, cfg Config) error {
	dsn := urlDSN(cfg)
	if err := WaitForPostgres(ctx, dsn, readyTimeout); err != nil {
		return migrateFailed("db.wait", fmt.Errorf("database not ready: %w", err))
	}

	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return migrateFailed("db.resolve", err)
	}
	set := scanMigrations(dir)
	logger.MIG.Debug("migrations resolved",
		append([]any{slog.String("event", "db.resolve"), slog.String("path", dir)}, fileAttrs(set.names())...)...,
	)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return migrateFailed("db.migrate", fmt.Errorf("init migrations: %w", err))
	}
	defer m.Close()

	from := currentVersion(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return migrateFailed("db.apply", fmt.Errorf("apply migrations: %w", err))
	}
	to := currentVersion(m)

	applied := set.between(from, to)
	if len(applied) > 0 {
		logger.MIG.Debug("applied files",
			append([]any{slog.String("event", "db.apply")}, fileAttrs(applied.names())...)...,
		)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "db.migrate"),
		slog.String("status", "ok"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// currentVersion reports the applied schema version; 0 for a fresh database.
func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func migrateFailed(event string, err error) error {
	logger.MIG.Error("migration failed",
		slog.String("event", event),
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return err
}

func resolveMigrationsDir(dir string) (string, error) {
	dir = cmp.Or(strings.TrimSpace(dir), "migrations")
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}
