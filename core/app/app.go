// Package app wires the document library and pagination sessions into the
// configured chat platform.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/pagerbot/core/bootstrap"
	coreconfig "github.com/m3rciful/pagerbot/core/config"
	coredatabase "github.com/m3rciful/pagerbot/core/database"
	"github.com/m3rciful/pagerbot/core/docs"
	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

// StatsSource reports journaled sessions grouped by end reason.
type StatsSource interface {
	SessionStats(ctx context.Context) (map[string]int, error)
}

// Services are the application services built on top of bootstrap storage.
type Services struct {
	Library *docs.Library
	// Journal and Stats are nil unless the storage is the database.
	Journal paginator.Journal
	Stats   StatsSource
}

// App owns the event hub and the live sessions shared by platform handlers.
type App struct {
	cfg      *coreconfig.Config
	hub      *events.Hub
	sessions *paginator.Registry
	library  *docs.Library
	journal  paginator.Journal
	stats    StatsSource
	infra    *bootstrap.Result
}

// New builds an app over svc.
func New(cfg *coreconfig.Config, svc *Services) *App {
	a := &App{
		cfg:      cfg,
		hub:      events.NewHub(),
		sessions: paginator.NewRegistry(),
	}
	if svc != nil {
		a.library = svc.Library
		a.journal = svc.Journal
		a.stats = svc.Stats
	}
	if a.library == nil {
		a.library = docs.NewLibrary(docs.NewMemorySource())
	}
	return a
}

// Bootstrap runs the bootstrap pipeline for cfg and returns the wired app.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:  cfg,
		Storage: StorageFor(cfg),
		Modules: bootstrap.Modules{
			Seeders:  Seeders(cfg),
			Services: ServicesProvider(),
		},
	})
	if err != nil {
		return nil, err
	}
	svc, ok := res.Services.(*Services)
	if !ok {
		_ = res.Close()
		return nil, fmt.Errorf("app: unexpected services %T", res.Services)
	}
	a := New(cfg, svc)
	a.infra = res
	return a, nil
}

// StorageFor returns the database store when a connection exists and an
// in-memory document source otherwise.
func StorageFor(cfg *coreconfig.Config) func(db *sqlx.DB) (bootstrap.Storage, error) {
	return func(db *sqlx.DB) (bootstrap.Storage, error) {
		if db == nil {
			return docs.NewMemorySource(), nil
		}
		return coredatabase.NewStore(db, cfg.Platform), nil
	}
}

// Seeders loads the documents directory into storage. The in-memory source
// is always seeded; the database only when documents.seed_on_start is set.
func Seeders(cfg *coreconfig.Config) []bootstrap.Seeder {
	if cfg.Database.Enabled && !cfg.Documents.SeedOnStart {
		return nil
	}
	return []bootstrap.Seeder{docs.DirSeeder{Dir: cfg.Documents.Dir}}
}

// ServicesProvider builds Services from bootstrap storage.
func ServicesProvider() bootstrap.TypedServiceProviderFunc[*Services] {
	return func(_ context.Context, _ any, storage bootstrap.Storage) (*Services, error) {
		src, ok := storage.(docs.Source)
		if !ok {
			return nil, fmt.Errorf("app: storage %T cannot serve documents", storage)
		}
		svc := &Services{Library: docs.NewLibrary(src)}
		if j, ok := storage.(paginator.Journal); ok {
			svc.Journal = j
		}
		if st, ok := storage.(StatsSource); ok {
			svc.Stats = st
		}
		return svc, nil
	}
}

// Hub returns the event hub platform handlers publish to.
func (a *App) Hub() *events.Hub { return a.hub }

// Sessions returns the live session registry.
func (a *App) Sessions() *paginator.Registry { return a.sessions }

// Run serves the configured platform until ctx is done, then stops every
// live session.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Platform {
	case coreconfig.PlatformDiscord:
		return runDiscord(ctx, a.DiscordRunOptions())
	default:
		opts, err := a.TelegramRunOptions()
		if err != nil {
			return err
		}
		return runTelegram(ctx, opts)
	}
}

// Close releases bootstrap infrastructure.
func (a *App) Close() error {
	return a.infra.Close()
}

func (a *App) shutdown(ctx context.Context) {
	live := a.sessions.Len()
	a.sessions.StopAll(ctx)
	logger.LogEvent(ctx, logger.L, slog.LevelInfo, "sessions.stopped",
		slog.String("status", "ok"),
		slog.Int("count", live),
	)
}
