package docs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/pagerbot/core/logger"
)

// DirSeeder loads the YAML documents under Dir into a Writer storage.
type DirSeeder struct {
	Dir string
}

// Seed saves every document found in Dir. storage must implement Writer.
func (s DirSeeder) Seed(ctx context.Context, storage any) error {
	w, ok := storage.(Writer)
	if !ok {
		return fmt.Errorf("docs: seed: storage %T cannot save documents", storage)
	}
	start := time.Now()
	docs, err := LoadDir(s.Dir)
	if err != nil {
		logger.LogEvent(ctx, logger.SEED, slog.LevelError, "seed.load",
			slog.String("status", "fail"),
			slog.String("dir", s.Dir),
			slog.String("err", err.Error()),
		)
		return err
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.SaveDocument(ctx, d); err != nil {
			return fmt.Errorf("docs: seed %q: %w", d.Name, err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelDebug, "seed.document",
			slog.String("document", d.Name),
			slog.Int("pages", len(d.Pages)),
		)
	}
	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.summary",
		slog.String("status", "ok"),
		slog.String("dir", s.Dir),
		slog.Int("count", len(docs)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
