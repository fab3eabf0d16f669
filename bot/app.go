package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/celebguess/core/bootstrap"
	corecmd "github.com/m3rciful/celebguess/core/cmd"
	coreconfig "github.com/m3rciful/celebguess/core/config"
	coredatabase "github.com/m3rciful/celebguess/core/database"
	"github.com/m3rciful/celebguess/core/logger"
	coretelegram "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/core/telegram/router"
	"github.com/m3rciful/celebguess/game"
	"github.com/m3rciful/celebguess/metrics"
	"github.com/m3rciful/celebguess/render"
)

// App is the assembled bot: engine, handlers, metrics and optional database.
type App struct {
	cfg      *coreconfig.Config
	boot     *bootstrap.Result
	store    game.Store
	engine   *game.Engine
	handlers *Handlers
	metrics  *metrics.Metrics

	opsCancel context.CancelFunc
	opsDone   chan error
}

var _ corecmd.TelegramApp = (*App)(nil)

// Build bootstraps infrastructure and assembles the game.
func Build(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	boot, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:  cfg,
		Modules: bootstrap.Modules{Seeders: seeders(cfg)},
	})
	if err != nil {
		return nil, err
	}

	app, err := assemble(ctx, cfg, boot)
	if err != nil {
		_ = boot.Close()
		return nil, err
	}
	return app, nil
}

func assemble(ctx context.Context, cfg *coreconfig.Config, boot *bootstrap.Result) (*App, error) {
	var db coredatabase.Selecter
	if boot.DB != nil {
		db = boot.DB
	}
	catalog, err := LoadCatalog(ctx, cfg.Game, db)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{
		Width:    cfg.Render.Width,
		Height:   cfg.Render.Height,
		FontPath: cfg.Render.FontPath,
		FontSize: cfg.Render.FontSize,
		Tagline:  cfg.Render.Tagline,
		ShareURL: cfg.Render.ShareURL,
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	store := game.NewMemoryStore()
	engine, err := game.NewEngine(store, catalog, m.InstrumentRenderer(renderer), game.WithObserver(m))
	if err != nil {
		return nil, err
	}
	if err := m.TrackActiveRounds(store.Len); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	logger.GAME.Info("game ready",
		slog.String("event", "game.ready"),
		slog.String("catalog_source", cfg.Game.CatalogSource),
		slog.Int("celebrities", catalog.Len()),
		slog.Bool("font_fallback", renderer.FontFallback()),
	)

	return &App{
		cfg:    cfg,
		boot:   boot,
		store:  store,
		engine: engine,
		handlers: NewHandlers(engine, HandlerOptions{
			RenderTimeout: time.Duration(cfg.Render.TimeoutMS) * time.Millisecond,
		}),
		metrics: m,
	}, nil
}

func seeders(cfg *coreconfig.Config) []bootstrap.Seeder {
	if !cfg.Database.Seed {
		return nil
	}
	names := seedNames(cfg.Game)
	return []bootstrap.Seeder{
		bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
			_, err := coredatabase.SeedCelebrities(ctx, db, names)
			return err
		}),
	}
}

// TelegramRunOptions wires routes and lifecycle hooks for the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, a.handlers.RateLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Dispatcher != nil {
		if err := a.metrics.TrackSender(rt.Dispatcher); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	listen := a.cfg.Metrics.Listen
	if listen == "" {
		return nil
	}
	checks := map[string]metrics.HealthFunc{}
	if a.boot.DB != nil {
		checks["database"] = a.boot.DB.PingContext
	}
	srv := metrics.NewServer(listen, a.metrics, checks)

	opsCtx, cancel := context.WithCancel(ctx)
	a.opsCancel = cancel
	a.opsDone = make(chan error, 1)
	go func() {
		err := srv.Run(opsCtx)
		if err != nil {
			logger.OPS.Error("ops server failed",
				slog.String("event", "ops.fail"),
				slog.String("err", err.Error()),
			)
		}
		a.opsDone <- err
	}()
	return nil
}

func (a *App) onStop(context.Context, coretelegram.Runtime) error {
	if a.opsCancel == nil {
		return nil
	}
	a.opsCancel()
	<-a.opsDone
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.boot.Close()
}
