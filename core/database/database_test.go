package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSelecter struct {
	names []string
	err   error
	query string
}

func (f *fakeSelecter) SelectContext(_ context.Context, dest any, query string, _ ...any) error {
	f.query = query
	if f.err != nil {
		return f.err
	}
	*dest.(*[]string) = append([]string(nil), f.names...)
	return nil
}

func TestLoadCelebrities(t *testing.T) {
	db := &fakeSelecter{names: []string{"Tom Cruise", "Madonna"}}
	names, err := LoadCelebrities(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, []string{"Tom Cruise", "Madonna"}, names)
	require.Equal(t, selectCelebrities, db.query)
}

func TestLoadCelebrities_Error(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := LoadCelebrities(context.Background(), &fakeSelecter{err: boom})
	require.ErrorIs(t, err, boom)
}

func TestMigrationSet(t *testing.T) {
	set := migrationSet{
		{name: "0001_create_celebrities.up.sql", version: 1},
		{name: "0002_add_aliases.up.sql", version: 2},
		{name: "0003_x.up.sql", version: 3},
	}

	require.Equal(t, uint64(2), fileVersion("0002_add_aliases.up.sql"))
	require.Zero(t, fileVersion("garbage"))
	require.Len(t, set.between(1, 3), 2)
	require.Empty(t, set.between(3, 3))
	require.Equal(t, []string{"0001_create_celebrities.up.sql"}, set.between(0, 1).names())
}

func TestScanMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0010_c.up.sql", "0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql", "0010_c.up.sql"}, scanMigrations(dir).names())
	require.Nil(t, scanMigrations(filepath.Join(dir, "missing")))
}

func TestResolveMigrationsDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "sql")
	got, err := resolveMigrationsDir(abs)
	require.NoError(t, err)
	require.Equal(t, abs, got)

	got, err = resolveMigrationsDir("")
	require.NoError(t, err)
	require.Equal(t, "migrations", filepath.Base(got))
	require.True(t, filepath.IsAbs(got))
}

func TestDSN(t *testing.T) {
	cfg := Config{User: "bot", Password: "p@ss word", Host: "db", Port: "5432", Name: "celebguess", SSLMode: "disable"}
	require.Equal(t, "user=bot password='p@ss word' host=db port=5432 dbname=celebguess sslmode=disable", keywordDSN(cfg))
	require.Equal(t, `user='' password='it\'s' host=db port=5432 dbname=celebguess sslmode=disable`,
		keywordDSN(Config{Password: "it's", Host: "db", Port: "5432", Name: "celebguess", SSLMode: "disable"}))
	require.Equal(t, "postgres://bot:p%40ss%20word@db:5432/celebguess?sslmode=disable", urlDSN(cfg))
}
