package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/pagerbot/core/config"
	coredatabase "github.com/m3rciful/pagerbot/core/database"
	"github.com/m3rciful/pagerbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.DatabaseConfig) error
	// Storage builds the storage handed to modules. db is nil when the
	// database is disabled.
	Storage func(db *sqlx.DB) (Storage, error)

	Modules Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB       *sqlx.DB
	Storage  Storage
	Services any
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects to the database, applies migrations,
// then runs the seeders and service providers of opts.Modules.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if dbCfg := opts.Config.Database; dbCfg.Enabled {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(dbCfg); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	if opts.Storage != nil {
		storage, err := opts.Storage(res.DB)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bootstrap: storage init failed: %w", err), res.Close())
		}
		res.Storage = storage
	}

	for i, s := range opts.Modules.Seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Seed(ctx, res.Storage); err != nil {
			return nil, errors.Join(fmt.Errorf("bootstrap: seeder %d failed: %w", i, err), res.Close())
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelDebug, "seeder.done",
			slog.Int("index", i),
			slog.Duration("duration", logger.Took(start)),
		)
	}

	if p := opts.Modules.Services; p != nil {
		services, err := p.Provide(ctx, opts.Config, res.Storage)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bootstrap: services init failed: %w", err), res.Close())
		}
		res.Services = services
	}
	return res, nil
}
