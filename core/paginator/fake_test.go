package paginator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/paginator"
)

const (
	owner   = "u1"
	channel = "c1"
)

type calls struct {
	sent      []paginator.Page
	edits     []paginator.Page
	texts     []string
	reactions []string
	cleared   int
	deleted   []paginator.MessageRef
	bulk      []paginator.MessageRef
}

// recorder is an in-memory Messenger that remembers what a user would see.
type recorder struct {
	mu       sync.Mutex
	seq      int
	c        calls
	shown    *paginator.Embed
	failSend error
	failEdit error
}

var _ paginator.Messenger = (*recorder)(nil)

func (r *recorder) next(ch string) paginator.MessageRef {
	r.seq++
	return paginator.MessageRef{ChannelID: ch, MessageID: fmt.Sprintf("m%d", r.seq)}
}

func (r *recorder) Send(_ context.Context, ch string, page paginator.Page) (paginator.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSend != nil {
		return paginator.MessageRef{}, r.failSend
	}
	r.c.sent = append(r.c.sent, page)
	r.shown = page.Embed
	return r.next(ch), nil
}

func (r *recorder) Edit(_ context.Context, _ paginator.MessageRef, page paginator.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEdit != nil {
		return r.failEdit
	}
	r.c.edits = append(r.c.edits, page)
	r.shown = page.Embed
	return nil
}

func (r *recorder) Delete(_ context.Context, msg paginator.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.deleted = append(r.c.deleted, msg)
	return nil
}

func (r *recorder) AddReaction(_ context.Context, _ paginator.MessageRef, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.reactions = append(r.c.reactions, symbol)
	return nil
}

func (r *recorder) ClearReactions(context.Context, paginator.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.cleared++
	return nil
}

func (r *recorder) SendText(_ context.Context, ch, text string) (paginator.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.texts = append(r.c.texts, text)
	return r.next(ch), nil
}

func (r *recorder) DeleteMessages(_ context.Context, _ string, msgs []paginator.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.bulk = append(r.c.bulk, msgs...)
	return nil
}

func (r *recorder) title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shown == nil {
		return ""
	}
	return r.shown.Title
}

func (r *recorder) editCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.c.edits)
}

func (r *recorder) snapshot() calls {
	r.mu.Lock()
	defer r.mu.Unlock()
	return calls{
		sent:      append([]paginator.Page(nil), r.c.sent...),
		edits:     append([]paginator.Page(nil), r.c.edits...),
		texts:     append([]string(nil), r.c.texts...),
		reactions: append([]string(nil), r.c.reactions...),
		cleared:   r.c.cleared,
		deleted:   append([]paginator.MessageRef(nil), r.c.deleted...),
		bulk:      append([]paginator.MessageRef(nil), r.c.bulk...),
	}
}

func pages(n int) []*paginator.Embed {
	out := make([]*paginator.Embed, n)
	for i := range out {
		out[i] = &paginator.Embed{Title: fmt.Sprintf("P%d", i)}
	}
	return out
}

type harness struct {
	t   *testing.T
	hub *events.Hub
	rec *recorder
	s   *paginator.Session
}

func start(t *testing.T, s *paginator.Session) *harness {
	t.Helper()
	return startWith(t, s, &recorder{})
}

func startWith(t *testing.T, s *paginator.Session, rec *recorder) *harness {
	t.Helper()
	h := &harness{t: t, hub: events.NewHub(), rec: rec, s: s}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = s.Wait(context.Background())
	})
	require.NoError(t, s.Start(ctx, h.invocation()))
	return h
}

func (h *harness) invocation() paginator.Invocation {
	return paginator.Invocation{Owner: owner, Channel: channel, Messenger: h.rec, Events: h.hub}
}

func (h *harness) waiting(kind events.Kind) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.hub.Pending(kind) > 0 }, 2*time.Second, time.Millisecond)
}

// press delivers a control as the owner and waits until the loop is listening again.
func (h *harness) press(symbol string) {
	h.t.Helper()
	h.pressAs(events.ReactionAdded, owner, symbol)
	if symbol == paginator.SymbolStop || symbol == paginator.SymbolInput {
		return
	}
	h.waiting(events.ReactionAdded)
}

func (h *harness) pressAs(kind events.Kind, user, symbol string) int {
	h.t.Helper()
	h.waiting(kind)
	return h.hub.Publish(events.Event{
		Kind:      kind,
		ChannelID: channel,
		MessageID: h.s.Message().MessageID,
		UserID:    user,
		Symbol:    symbol,
	})
}

func (h *harness) reply(text string) paginator.MessageRef {
	h.t.Helper()
	h.waiting(events.MessageCreated)
	ref := paginator.MessageRef{ChannelID: channel, MessageID: "reply-" + text}
	require.Equal(h.t, 1, h.hub.Publish(events.Event{
		Kind:      events.MessageCreated,
		ChannelID: channel,
		MessageID: ref.MessageID,
		UserID:    owner,
		Content:   text,
	}))
	return ref
}

func (h *harness) done() {
	h.t.Helper()
	select {
	case <-h.s.Done():
	case <-time.After(2 * time.Second):
		h.t.Fatal("session did not finish")
	}
}

type memJournal struct {
	mu      sync.Mutex
	started []paginator.SessionInfo
	ended   []paginator.StopReason
	fail    bool
}

func (j *memJournal) SessionStarted(_ context.Context, info paginator.SessionInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = append(j.started, info)
	if j.fail {
		return errors.New("journal down")
	}
	return nil
}

func (j *memJournal) SessionEnded(_ context.Context, _ string, reason paginator.StopReason, _ int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ended = append(j.ended, reason)
	return nil
}
