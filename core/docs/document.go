// Package docs holds the multi-page documents the bot paginates and the
// sources they are served from.
package docs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/pagerbot/core/paginator"
)

// ErrNotFound is matched by every lookup miss, including *NotFoundError.
var ErrNotFound = errors.New("docs: document not found")

// Document is a named, ordered set of pages with optional per-page attachments.
type Document struct {
	Name  string
	Title string
	Pages []*paginator.Embed
	// Files is index-aligned with Pages; nil entries mean no attachment.
	Files []*paginator.File
}

// Validate checks the document can back a pagination session.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New("docs: nil document")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("docs: document name is required")
	}
	if len(d.Pages) == 0 {
		return fmt.Errorf("docs: document %q has no pages", d.Name)
	}
	for i, p := range d.Pages {
		if p == nil {
			return fmt.Errorf("docs: document %q page %d is empty", d.Name, i+1)
		}
	}
	if len(d.Files) > len(d.Pages) {
		return fmt.Errorf("docs: document %q has %d attachments for %d pages", d.Name, len(d.Files), len(d.Pages))
	}
	return nil
}

// Session prepares a pagination session over the document.
func (d *Document) Session(opts ...paginator.Option) *paginator.Session {
	all := make([]paginator.Option, 0, len(opts)+2)
	all = append(all, paginator.WithFiles(d.Files...), paginator.WithLabel(d.Name))
	all = append(all, opts...)
	return paginator.New(d.Pages, all...)
}

// Source serves documents by name.
type Source interface {
	Names(ctx context.Context) ([]string, error)
	// Document returns ErrNotFound (possibly wrapped) for unknown names.
	Document(ctx context.Context, name string) (*Document, error)
}

// Writer persists documents.
type Writer interface {
	SaveDocument(ctx context.Context, doc *Document) error
}

// NotFoundError reports a lookup miss with the closest known names.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("docs: no document named %q", e.Name)
	}
	return fmt.Sprintf("docs: no document named %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Code returns a stable identifier for logs.
func (e *NotFoundError) Code() string { return "document_not_found" }

// NormalizeName folds a user supplied document name into its lookup key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
