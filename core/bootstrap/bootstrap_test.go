package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/celebguess/core/config"
	coredatabase "github.com/m3rciful/celebguess/core/database"
)

func noopLogger(*coreconfig.Config) error { return nil }

func TestRun_ConfigCatalogSkipsDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Game: coreconfig.GameConfig{CatalogSource: coreconfig.CatalogConfig}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noopLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	require.NoError(t, err)
	require.Nil(t, res.DB)
	require.NoError(t, res.Close())
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	require.Error(t, err)

	boom := errors.New("boom")
	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	require.ErrorIs(t, err, boom)

	dbCfg := &coreconfig.Config{Game: coreconfig.GameConfig{CatalogSource: coreconfig.CatalogDatabase}}
	_, err = Run(context.Background(), Options{
		Config:     dbCfg,
		LoggerInit: noopLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	require.ErrorIs(t, err, boom)
}

func TestSeederFunc(t *testing.T) {
	called := false
	var s Seeder = SeederFunc(func(context.Context, *sqlx.DB) error {
		called = true
		return nil
	})
	require.NoError(t, s.Seed(context.Background(), nil))
	require.True(t, called)
}

func lazyDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 dbname=x sslmode=disable")
	require.NoError(t, err)
	return db
}

func TestRun_DatabasePipeline(t *testing.T) {
	var steps []string
	seed := func(name string) Seeder {
		return SeederFunc(func(context.Context, *sqlx.DB) error {
			steps = append(steps, name)
			return nil
		})
	}
	cfg := &coreconfig.Config{Game: coreconfig.GameConfig{CatalogSource: coreconfig.CatalogDatabase}}
	db := lazyDB(t)

	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noopLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return db, nil
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			steps = append(steps, "migrate")
			return nil
		},
		Modules: Modules{Seeders: []Seeder{seed("first"), nil, seed("second")}},
	})
	require.NoError(t, err)
	require.Same(t, db, res.DB)
	require.Equal(t, []string{"connect", "migrate", "first", "second"}, steps)
	require.NoError(t, res.Close())
}

func TestRun_MigrationFailureClosesPool(t *testing.T) {
	boom := errors.New("dirty schema")
	db := lazyDB(t)
	cfg := &coreconfig.Config{Game: coreconfig.GameConfig{CatalogSource: coreconfig.CatalogDatabase}}

	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noopLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return db, nil
		},
		Migrate: func(context.Context, coredatabase.Config) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, db.Ping(), "database is closed")
}
