package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/m3rciful/pagerbot/core/logger"
)

const (
	component      = "docs"
	maxSuggestions = 3
)

// Library resolves user supplied names against a Source.
type Library struct {
	src Source
}

// NewLibrary wraps src.
func NewLibrary(src Source) *Library {
	return &Library{src: src}
}

// Names lists the available documents in display order.
func (l *Library) Names(ctx context.Context) ([]string, error) {
	names, err := l.src.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("docs: list: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Lookup finds a document by case-insensitive name. A miss returns
// *NotFoundError with up to three close matches.
func (l *Library) Lookup(ctx context.Context, name string) (*Document, error) {
	key := NormalizeName(name)
	if key == "" {
		return nil, &NotFoundError{Name: name}
	}
	names, err := l.Names(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if NormalizeName(n) != key {
			continue
		}
		doc, err := l.src.Document(ctx, n)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docs: load %q: %w", n, err)
		}
		return doc, nil
	}

	suggestions := suggest(key, names)
	logger.Debug(ctx, component, "lookup.miss",
		slog.String("document", logger.SanitizeLimit(name, 64)),
		slog.Int("count", len(suggestions)),
	)
	return nil, &NotFoundError{Name: name, Suggestions: suggestions}
}

// suggest ranks names by edit distance to key and keeps the plausible ones.
func suggest(key string, names []string) []string {
	type scored struct {
		name string
		dist int
	}
	limit := max(2, len([]rune(key))/2)
	var cands []scored
	for _, n := range names {
		d := levenshtein.ComputeDistance(key, NormalizeName(n))
		if d <= limit {
			cands = append(cands, scored{n, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > maxSuggestions {
		cands = cands[:maxSuggestions]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}
