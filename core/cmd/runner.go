package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	coreconfig "github.com/m3rciful/pagerbot/core/config"
	"github.com/m3rciful/pagerbot/core/logger"
)

// ErrAlreadyRunning is returned when another process holds the lock file.
var ErrAlreadyRunning = errors.New("cmd: another instance holds the lock file")

// App is a bootstrapped bot ready to serve.
type App interface {
	Run(ctx context.Context) error
	Close() error
}

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath when set.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(ctx context.Context, cfg *coreconfig.Config) (App, error)

	ShutdownLogger func() error
}

// ResolveConfigPath picks the config path: explicit value, then env, then fallback.
func ResolveConfigPath(explicit, envVar, fallback string) (string, error) {
	if envVar == "" {
		envVar = "CONFIG_PATH"
	}
	for _, p := range []string{explicit, os.Getenv(envVar), fallback} {
		if p = strings.TrimSpace(p); p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("cmd: config path not provided via flag, %s or default", envVar)
}

// LoadConfig resolves and loads the configuration described by opts.
func LoadConfig(opts Options) (*coreconfig.Config, error) {
	cfgPath, err := ResolveConfigPath(opts.ConfigPath, opts.ConfigEnvVar, opts.DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	load := opts.LoadConfig
	if load == nil {
		load = coreconfig.Load
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	return cfg, nil
}

// AcquireLock takes the single-instance lock at path. An empty path disables
// locking and returns a no-op release.
func AcquireLock(path string) (func(), error) {
	if strings.TrimSpace(path) == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cmd: lock dir: %w", err)
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cmd: lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// Run loads configuration, bootstraps the app, and serves until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}

	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	release, err := AcquireLock(cfg.Runtime.LockFile)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer func() {
		if err := application.Close(); err != nil {
			logger.LogEvent(context.Background(), logger.L, slog.LevelWarn, "app.close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()

	logger.LogEvent(ctx, logger.L, slog.LevelInfo, "ready",
		slog.String("platform", cfg.Platform),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)
	err = application.Run(ctx)
	logger.LogEvent(context.Background(), logger.L, slog.LevelInfo, "shutdown",
		slog.String("status", logger.Status(err)),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
