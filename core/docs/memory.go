package docs

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource keeps documents in process. It serves the bot when no
// database is configured.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemorySource returns a source holding docs.
func NewMemorySource(docs ...*Document) *MemorySource {
	m := &MemorySource{docs: make(map[string]*Document, len(docs))}
	for _, d := range docs {
		if d != nil {
			m.docs[NormalizeName(d.Name)] = d
		}
	}
	return m
}

// Names returns the stored document names.
func (m *MemorySource) Names(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.docs))
	for _, d := range m.docs {
		names = append(names, d.Name)
	}
	return names, nil
}

// Document returns the named document.
func (m *MemorySource) Document(_ context.Context, name string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// SaveDocument stores doc, replacing any document with the same name.
func (m *MemorySource) SaveDocument(_ context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[NormalizeName(doc.Name)] = doc
	m.mu.Unlock()
	return nil
}
