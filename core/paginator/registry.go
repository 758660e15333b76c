package paginator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/m3rciful/pagerbot/core/logger"
)

// ErrMessageTaken is returned when a message already drives a live session.
var ErrMessageTaken = errors.New("paginator: message already bound to a session")

// Registry tracks live sessions so the host can inspect and stop them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[MessageRef]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[MessageRef]*Session)}
}

// Start starts s and keeps it registered until it finishes.
// Single-page documents finish immediately and are never registered.
func (r *Registry) Start(ctx context.Context, s *Session, inv Invocation) error {
	if err := s.Start(ctx, inv); err != nil {
		return err
	}
	if !s.Running() {
		return nil
	}

	ref := s.Message()
	r.mu.Lock()
	if _, taken := r.sessions[ref]; taken {
		r.mu.Unlock()
		s.Stop(ctx, StopShutdown)
		return ErrMessageTaken
	}
	r.sessions[ref] = s
	r.mu.Unlock()

	go func() {
		<-s.Done()
		r.mu.Lock()
		if r.sessions[ref] == s {
			delete(r.sessions, ref)
		}
		r.mu.Unlock()
	}()
	return nil
}

// Get returns the session bound to ref.
func (r *Registry) Get(ref MessageRef) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[ref]
	return s, ok
}

// OwnerOf reports the owner of the live session bound to ref.
func (r *Registry) OwnerOf(ref MessageRef) (string, bool) {
	s, ok := r.Get(ref)
	if !ok || !s.Running() {
		return "", false
	}
	return s.Owner(), true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StopAll ends every live session with StopShutdown and waits for them to finish.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	for _, s := range live {
		s.Stop(ctx, StopShutdown)
	}
	for _, s := range live {
		if err := s.Wait(ctx); err != nil {
			logger.Warn(ctx, component, "registry.stop_wait",
				slog.String("session_id", s.ID()),
				slog.String("err", err.Error()),
			)
			return
		}
	}
	logger.Info(ctx, component, "registry.stopped", slog.Int("count", len(live)))
}
