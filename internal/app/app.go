// Package app wires the row store, the windowed loader, the presentation
// adapter and the mutation gateway together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/charmbracelet/pagelist/internal/adapter"
	"github.com/charmbracelet/pagelist/internal/cheese"
	"github.com/charmbracelet/pagelist/internal/config"
	"github.com/charmbracelet/pagelist/internal/gateway"
	"github.com/charmbracelet/pagelist/internal/log"
	"github.com/charmbracelet/pagelist/internal/paging"
)

type App struct {
	Cheeses   cheese.Service
	Pager     *paging.Pager[cheese.Cheese]
	Mutations *gateway.Gateway[cheese.Cheese, int64]

	config *config.Config
	conn   *sql.DB

	globalCtx    context.Context
	cancel       context.CancelFunc
	forwardWG    sync.WaitGroup
	shutdownOnce sync.Once

	cleanupMu    sync.Mutex
	cleanupFuncs []func() error
}

// New builds an App on top of an open database. The window is loaded before
// New returns; a failed initial load is logged and left for the next
// refresh.
func New(ctx context.Context, conn *sql.DB, cfg *config.Config) (*App, error) {
	sort, err := cheese.ParseSortKey(cfg.Sort)
	if err != nil {
		return nil, err
	}
	cheeses := cheese.NewService(conn, sort)

	pager, err := paging.New[cheese.Cheese](cheeses, cfg.PagingConfig(),
		paging.WithLogger(slog.Default().With("component", "pager")))
	if err != nil {
		return nil, fmt.Errorf("failed to create pager: %w", err)
	}

	mutations := gateway.New[cheese.Cheese, int64](cheeses, pager,
		slog.Default().With("component", "gateway"))

	globalCtx, cancel := context.WithCancel(ctx)
	app := &App{
		Cheeses:   cheeses,
		Pager:     pager,
		Mutations: mutations,
		config:    cfg,
		conn:      conn,
		globalCtx: globalCtx,
		cancel:    cancel,
	}
	mutations.Start(globalCtx)

	if cfg.Seeds == nil || !cfg.Seeds.DisableAutoSeed {
		if _, err := app.seed(ctx, false); err != nil {
			slog.Warn("Failed to seed the store", "error", err)
		}
	}

	if err := pager.Invalidate(ctx); err != nil {
		slog.Warn("Initial load failed", "error", err)
	}
	return app, nil
}

// Config returns the application configuration.
func (app *App) Config() *config.Config {
	return app.config
}

// Present attaches surface to the live list. Every snapshot the pager
// publishes is submitted to the returned adapter, which the caller drains
// on its rendering goroutine with Apply or Run. The adapter is closed on
// Shutdown.
func (app *App) Present(surface adapter.Surface, opts ...adapter.Option) *adapter.Adapter[cheese.Cheese] {
	opts = append([]adapter.Option{
		adapter.WithLoader(app.Pager),
		adapter.WithLogger(slog.Default().With("component", "adapter")),
	}, opts...)
	ad := adapter.New(surface, cheese.SameContents, opts...)
	ad.Submit(app.Pager.Snapshot())

	app.forwardWG.Add(1)
	go func() {
		defer log.RecoverPanic("app.Present", nil)
		defer app.forwardWG.Done()
		snapshots := app.Pager.Snapshots()
		for {
			select {
			case <-app.globalCtx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				ad.Submit(snap)
			}
		}
	}()

	app.addCleanup(func() error {
		ad.Close()
		return nil
	})
	return ad
}

// Seed fills the store from the seed catalog if it is empty, or replaces
// its contents when force is set, then refreshes the window. It returns how
// many rows were added.
func (app *App) Seed(ctx context.Context, force bool) (int, error) {
	n, err := app.seed(ctx, force)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := app.Pager.Invalidate(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (app *App) seed(ctx context.Context, force bool) (int, error) {
	names, err := config.Seeds(app.config)
	if err != nil {
		return 0, err
	}
	if force {
		removed, err := app.Cheeses.Clear(ctx)
		if err != nil {
			return 0, err
		}
		slog.Info("Cleared store before seeding", "removed", removed)
	}
	n, err := app.Cheeses.Seed(ctx, names)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("Seeded store", "count", n)
	}
	return n, nil
}

func (app *App) addCleanup(fn func() error) {
	app.cleanupMu.Lock()
	defer app.cleanupMu.Unlock()
	app.cleanupFuncs = append(app.cleanupFuncs, fn)
}

// Shutdown fails queued mutations, stops every background goroutine and
// closes the database.
func (app *App) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.Mutations.Close()

		app.cleanupMu.Lock()
		funcs := app.cleanupFuncs
		app.cleanupFuncs = nil
		app.cleanupMu.Unlock()

		var errs []error
		for _, fn := range funcs {
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}

		app.cancel()
		app.forwardWG.Wait()
		app.Pager.Close()
		app.Cheeses.Shutdown()

		if err := app.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		if err := errors.Join(errs...); err != nil {
			slog.Error("Shutdown finished with errors", "error", err)
		}
	})
}
