// Package events fans platform updates out to goroutines waiting for them.
package events

import (
	"context"
	"sync"
)

// Kind enumerates the update types sessions can wait for.
type Kind int

const (
	// ReactionAdded fires when a user adds a reaction or presses a control button.
	ReactionAdded Kind = iota + 1
	// ReactionRemoved fires when a user removes a reaction.
	ReactionRemoved
	// MessageCreated fires for every plain text message.
	MessageCreated
)

func (k Kind) String() string {
	switch k {
	case ReactionAdded:
		return "reaction_added"
	case ReactionRemoved:
		return "reaction_removed"
	case MessageCreated:
		return "message_created"
	}
	return "unknown"
}

// Event is a platform-neutral update. Symbol is set for reactions, Content for messages.
type Event struct {
	Kind      Kind
	ChannelID string
	MessageID string
	UserID    string
	Symbol    string
	Content   string
}

type waiter struct {
	kind  Kind
	match func(Event) bool
	ch    chan Event
}

// Hub delivers published events to registered waiters.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	waiters map[uint64]*waiter
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{waiters: make(map[uint64]*waiter)}
}

// Wait blocks until an event of kind satisfying match is published or ctx is done.
// The waiter is unregistered on return, so cancelled waits never leak.
func (h *Hub) Wait(ctx context.Context, kind Kind, match func(Event) bool) (Event, error) {
	w := &waiter{kind: kind, match: match, ch: make(chan Event, 1)}

	h.mu.Lock()
	h.seq++
	id := h.seq
	h.waiters[id] = w
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.waiters, id)
		h.mu.Unlock()
	}()

	select {
	case ev := <-w.ch:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Publish hands ev to every matching waiter and returns how many consumed it.
// Predicates run under the hub lock and must not call back into the hub.
func (h *Hub) Publish(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, w := range h.waiters {
		if w.kind != ev.Kind || !safeMatch(w.match, ev) {
			continue
		}
		select {
		case w.ch <- ev:
			delivered++
		default:
		}
		delete(h.waiters, id)
	}
	return delivered
}

// Pending returns the number of waiters registered for kind.
func (h *Hub) Pending(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, w := range h.waiters {
		if w.kind == kind {
			n++
		}
	}
	return n
}

func safeMatch(match func(Event) bool, ev Event) (ok bool) {
	if match == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return match(ev)
}
