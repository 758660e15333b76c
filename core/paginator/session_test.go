package paginator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

func TestSession_NavigateThenStop(t *testing.T) {
	h := start(t, paginator.New(pages(3)))
	assert.Equal(t, "P0", h.rec.title())
	assert.True(t, h.s.Running())

	h.press(paginator.SymbolNext)
	assert.Equal(t, "P1", h.rec.title())
	h.press(paginator.SymbolNext)
	assert.Equal(t, "P2", h.rec.title())

	edits := h.rec.editCount()
	h.press(paginator.SymbolNext)
	assert.Equal(t, "P2", h.rec.title())
	assert.Equal(t, 2, h.s.Current())
	assert.Equal(t, edits, h.rec.editCount(), "stepping past the last page must not edit")

	h.press(paginator.SymbolStop)
	h.done()
	assert.False(t, h.s.Running())
	got := h.rec.snapshot()
	require.Len(t, got.deleted, 1)
	assert.Equal(t, h.s.Message(), got.deleted[0])
	assert.Zero(t, got.cleared)
}

func TestSession_PreviousOnFirstPageIsRejected(t *testing.T) {
	h := start(t, paginator.New(pages(4)))
	h.press(paginator.SymbolPrevious)
	assert.Equal(t, 0, h.s.Current())
	assert.Zero(t, h.rec.editCount())

	h.press(paginator.SymbolNext)
	h.press(paginator.SymbolPrevious)
	h.press(paginator.SymbolPrevious)
	assert.Equal(t, 0, h.s.Current())
	assert.Equal(t, 2, h.rec.editCount())
}

func TestSession_StepsStayInRange(t *testing.T) {
	h := start(t, paginator.New(pages(5)))
	for i := 0; i < 8; i++ {
		h.press(paginator.SymbolNext)
		assert.LessOrEqual(t, h.s.Current(), 4)
	}
	for i := 0; i < 8; i++ {
		h.press(paginator.SymbolPrevious)
		assert.GreaterOrEqual(t, h.s.Current(), 0)
	}
	assert.Equal(t, 0, h.s.Current())
}

func TestSession_JumpFirstAndLast(t *testing.T) {
	h := start(t, paginator.New(pages(6)))
	h.press(paginator.SymbolLast)
	assert.Equal(t, 5, h.s.Current())
	assert.Equal(t, "P5", h.rec.title())

	h.press(paginator.SymbolPrevious)
	h.press(paginator.SymbolFirst)
	assert.Equal(t, 0, h.s.Current())
	assert.Equal(t, "P0", h.rec.title())
}

func TestSession_RemovedReactionAlsoNavigates(t *testing.T) {
	h := start(t, paginator.New(pages(3)))
	require.Equal(t, 1, h.pressAs(events.ReactionRemoved, owner, paginator.SymbolNext))
	h.waiting(events.ReactionAdded)
	require.Eventually(t, func() bool { return h.s.Current() == 1 }, time.Second, time.Millisecond)
}

func TestSession_IgnoresOtherUsersAndUnknownSymbols(t *testing.T) {
	h := start(t, paginator.New(pages(3)))
	assert.Equal(t, 0, h.pressAs(events.ReactionAdded, "intruder", paginator.SymbolNext))
	assert.Equal(t, 0, h.pressAs(events.ReactionAdded, owner, "👍"))
	assert.Equal(t, 0, h.s.Current())
}

func TestSession_StopSymbolWithoutVariationSelector(t *testing.T) {
	h := start(t, paginator.New(pages(3)))
	require.Equal(t, 1, h.pressAs(events.ReactionAdded, owner, "⏹"))
	h.done()
	assert.False(t, h.s.Running())
}

func TestSession_ControlSets(t *testing.T) {
	full := paginator.New(pages(5))
	assert.False(t, full.Compact())
	assert.Equal(t, []string{
		paginator.SymbolFirst, paginator.SymbolPrevious, paginator.SymbolStop,
		paginator.SymbolNext, paginator.SymbolLast, paginator.SymbolInput,
	}, symbols(full.Controls()))

	noInput := paginator.New(pages(5), paginator.WithInput(false))
	assert.Len(t, noInput.Controls(), 5)

	compact := paginator.New(pages(5), paginator.WithCompact(true))
	assert.Equal(t, []string{paginator.SymbolPrevious, paginator.SymbolStop, paginator.SymbolNext}, symbols(compact.Controls()))

	two := paginator.New(pages(2), paginator.WithCompact(false))
	assert.True(t, two.Compact())
	assert.Len(t, two.Controls(), 3)
}

func TestSession_AttachesControlsInOrder(t *testing.T) {
	s := paginator.New(pages(3))
	h := start(t, s)
	want := symbols(s.Controls())
	require.Eventually(t, func() bool { return len(h.rec.snapshot().reactions) == len(want) }, time.Second, time.Millisecond)
	assert.Equal(t, want, h.rec.snapshot().reactions)
}

func TestSession_StopTwiceIsNoop(t *testing.T) {
	h := start(t, paginator.New(pages(3)))
	ctx := context.Background()
	h.s.Stop(ctx, paginator.StopRequested)
	h.done()
	before := h.rec.snapshot()

	h.s.Stop(ctx, paginator.StopRequested)
	h.s.Stop(ctx, paginator.StopTimedOut)
	after := h.rec.snapshot()
	assert.Equal(t, before, after)
	assert.Len(t, after.deleted, 1)
}

func TestSession_IdleTimeoutClearsReactions(t *testing.T) {
	h := start(t, paginator.New(pages(3), paginator.WithIdleTimeout(30*time.Millisecond)))
	h.done()
	got := h.rec.snapshot()
	assert.False(t, h.s.Running())
	assert.Equal(t, 1, got.cleared)
	assert.Empty(t, got.deleted)
}

func TestSession_CancelledContextShutsDown(t *testing.T) {
	rec := &recorder{}
	hub := events.NewHub()
	s := paginator.New(pages(3))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, paginator.Invocation{Owner: owner, Channel: channel, Messenger: rec, Events: hub}))

	cancel()
	require.NoError(t, s.Wait(context.Background()))
	got := rec.snapshot()
	assert.Equal(t, 1, got.cleared)
	assert.Empty(t, got.deleted)
}

func TestSession_NumericInputClampsOvershoot(t *testing.T) {
	h := start(t, paginator.New(pages(4)))
	h.press(paginator.SymbolInput)
	reply := h.reply("99")
	h.waiting(events.ReactionAdded)

	require.Eventually(t, func() bool { return h.s.Current() == 3 }, time.Second, time.Millisecond)
	got := h.rec.snapshot()
	assert.Equal(t, []string{paginator.DefaultPrompts().Ask}, got.texts)
	require.Len(t, got.bulk, 2)
	assert.Equal(t, reply, got.bulk[1])
}

func TestSession_NumericInputOneIsFirstPage(t *testing.T) {
	h := start(t, paginator.New(pages(4)))
	h.press(paginator.SymbolLast)
	h.press(paginator.SymbolInput)
	h.reply("1")
	h.waiting(events.ReactionAdded)
	require.Eventually(t, func() bool { return h.s.Current() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, "P0", h.rec.title())
}

func TestSession_NumericInputIgnoresNonDigits(t *testing.T) {
	h := start(t, paginator.New(pages(4)))
	h.press(paginator.SymbolInput)
	h.waiting(events.MessageCreated)
	assert.Equal(t, 0, h.hub.Publish(events.Event{Kind: events.MessageCreated, ChannelID: channel, UserID: owner, Content: "two"}))
	assert.Equal(t, 0, h.hub.Publish(events.Event{Kind: events.MessageCreated, ChannelID: "elsewhere", UserID: owner, Content: "2"}))
	assert.Equal(t, 0, h.hub.Publish(events.Event{Kind: events.MessageCreated, ChannelID: channel, UserID: "intruder", Content: "2"}))
	h.reply("2")
	h.waiting(events.ReactionAdded)
	require.Eventually(t, func() bool { return h.s.Current() == 1 }, time.Second, time.Millisecond)
}

func TestSession_NumericInputTimeout(t *testing.T) {
	s := paginator.New(pages(4),
		paginator.WithInputTimeout(20*time.Millisecond),
		paginator.WithNoticeDelay(0),
		paginator.WithPrompts(paginator.Prompts{Ask: "page?", TooSlow: "too slow"}),
	)
	h := start(t, s)
	h.press(paginator.SymbolInput)
	h.waiting(events.ReactionAdded)

	require.Eventually(t, func() bool { return len(h.rec.snapshot().bulk) == 2 }, time.Second, time.Millisecond)
	got := h.rec.snapshot()
	assert.Equal(t, []string{"page?", "too slow"}, got.texts)
	assert.Equal(t, 0, s.Current())
	assert.Zero(t, h.rec.editCount())
	assert.True(t, s.Running())
}

func TestSession_EditFailureKeepsLoopAlive(t *testing.T) {
	rec := &recorder{failEdit: errors.New("message deleted")}
	h := startWith(t, paginator.New(pages(3)), rec)
	h.press(paginator.SymbolNext)
	h.press(paginator.SymbolNext)
	assert.Equal(t, 2, h.s.Current())
	assert.True(t, h.s.Running())
}

func TestSession_SinglePageFastPath(t *testing.T) {
	rec := &recorder{}
	s := paginator.NewSingle(&paginator.Embed{Title: "only"}, &paginator.File{Name: "thumbnail.png"})
	require.NoError(t, s.Start(context.Background(), paginator.Invocation{Owner: owner, Channel: channel, Messenger: rec}))

	select {
	case <-s.Done():
	default:
		t.Fatal("single page session should be done immediately")
	}
	got := rec.snapshot()
	require.Len(t, got.sent, 1)
	assert.Equal(t, "attachment://thumbnail.png", got.sent[0].Embed.Thumbnail.URL)
	assert.Empty(t, got.reactions)
	assert.False(t, s.Running())
}

func TestSession_InvalidContent(t *testing.T) {
	rec := &recorder{}
	inv := paginator.Invocation{Owner: owner, Channel: channel, Messenger: rec, Events: events.NewHub()}

	err := paginator.New(nil).Start(context.Background(), inv)
	require.ErrorIs(t, err, paginator.ErrInvalidContent)

	err = paginator.New([]*paginator.Embed{{Title: "a"}, nil}).Start(context.Background(), inv)
	var typeErr *paginator.InvalidContentTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, 1, typeErr.Index)

	assert.Empty(t, rec.snapshot().sent)
}

func TestSession_StartErrors(t *testing.T) {
	err := paginator.New(pages(3)).Start(context.Background(), paginator.Invocation{Messenger: &recorder{}})
	require.ErrorIs(t, err, paginator.ErrNoMessenger)

	h := start(t, paginator.New(pages(3)))
	require.ErrorIs(t, h.s.Start(context.Background(), h.invocation()), paginator.ErrAlreadyStarted)

	failing := paginator.New(pages(3))
	err = failing.Start(context.Background(), paginator.Invocation{
		Owner: owner, Channel: channel,
		Messenger: &recorder{failSend: errors.New("forbidden")},
		Events:    events.NewHub(),
	})
	require.Error(t, err)
	assert.False(t, failing.Running())
}

func TestSession_AttachmentsFollowPages(t *testing.T) {
	embeds := []*paginator.Embed{
		{Title: "P0"},
		{Title: "P1", Footer: &paginator.EmbedFooter{Text: "foot"}},
		{Title: "P2"},
	}
	s := paginator.New(embeds, paginator.WithFiles(
		&paginator.File{Name: "image-0.png"},
		&paginator.File{Name: "footer.png"},
	))
	h := start(t, s)
	got := h.rec.snapshot()
	require.Len(t, got.sent, 1)
	require.NotNil(t, got.sent[0].File)
	assert.Equal(t, "attachment://image-0.png", got.sent[0].Embed.Image.URL)
	assert.Nil(t, embeds[0].Image, "caller pages must not be mutated")

	h.press(paginator.SymbolNext)
	h.press(paginator.SymbolNext)
	got = h.rec.snapshot()
	require.Len(t, got.edits, 2)
	assert.Equal(t, "attachment://footer.png", got.edits[0].Embed.Footer.IconURL)
	assert.Nil(t, got.edits[1].File)
}

func TestSession_Journal(t *testing.T) {
	j := &memJournal{fail: true}
	h := start(t, paginator.New(pages(3), paginator.WithJournal(j), paginator.WithLabel("guide")))
	h.press(paginator.SymbolNext)
	h.press(paginator.SymbolStop)
	h.done()

	j.mu.Lock()
	defer j.mu.Unlock()
	require.Len(t, j.started, 1)
	assert.Equal(t, "guide", j.started[0].Label)
	assert.Equal(t, 3, j.started[0].Pages)
	assert.Equal(t, []paginator.StopReason{paginator.StopRequested}, j.ended)
}

func symbols(cs []paginator.Control) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Symbol
	}
	return out
}

// blockingAttach holds the first AddReaction until release is closed and
// records the order of control changes.
type blockingAttach struct {
	*recorder
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	opsMu sync.Mutex
	ops   []string
}

func (b *blockingAttach) op(name string) {
	b.opsMu.Lock()
	defer b.opsMu.Unlock()
	b.ops = append(b.ops, name)
}

func (b *blockingAttach) AddReaction(ctx context.Context, msg paginator.MessageRef, symbol string) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	b.op("add")
	return b.recorder.AddReaction(ctx, msg, symbol)
}

func (b *blockingAttach) ClearReactions(ctx context.Context, msg paginator.MessageRef) error {
	b.op("clear")
	return b.recorder.ClearReactions(ctx, msg)
}

func TestSession_StopWaitsForControlAttach(t *testing.T) {
	m := &blockingAttach{recorder: &recorder{}, entered: make(chan struct{}), release: make(chan struct{})}
	s := paginator.New(pages(3))
	require.NoError(t, s.Start(context.Background(), paginator.Invocation{
		Owner: owner, Channel: channel, Messenger: m, Events: events.NewHub(),
	}))
	<-m.entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.Stop(context.Background(), paginator.StopShutdown)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a control was still being attached")
	case <-time.After(30 * time.Millisecond):
	}

	close(m.release)
	<-stopped
	require.NoError(t, s.Wait(context.Background()))

	m.opsMu.Lock()
	defer m.opsMu.Unlock()
	require.NotEmpty(t, m.ops)
	assert.Equal(t, "clear", m.ops[len(m.ops)-1], "controls must not reappear after the clear")
	assert.Equal(t, 1, m.snapshot().cleared)
}

type releasingRecorder struct {
	*recorder
	mu       sync.Mutex
	released []paginator.MessageRef
}

func (r *releasingRecorder) Release(msg paginator.MessageRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, msg)
}

func TestSession_ReleasesMessageWhenFinished(t *testing.T) {
	ctx := context.Background()

	single := &releasingRecorder{recorder: &recorder{}}
	s := paginator.New(pages(1))
	require.NoError(t, s.Start(ctx, paginator.Invocation{Owner: owner, Channel: channel, Messenger: single}))
	<-s.Done()
	assert.Equal(t, []paginator.MessageRef{s.Message()}, single.released)

	multi := &releasingRecorder{recorder: &recorder{}}
	s = paginator.New(pages(3))
	require.NoError(t, s.Start(ctx, paginator.Invocation{Owner: owner, Channel: channel, Messenger: multi, Events: events.NewHub()}))
	s.Stop(ctx, paginator.StopRequested)
	require.NoError(t, s.Wait(ctx))
	multi.mu.Lock()
	defer multi.mu.Unlock()
	assert.Equal(t, []paginator.MessageRef{s.Message()}, multi.released)
}

func TestSession_LogsCarrySessionID(t *testing.T) {
	s := paginator.New(pages(2))
	ctx := s.LogContext(context.Background())
	assert.Equal(t, s.ID(), logger.SessionFrom(ctx))
	assert.Equal(t, ctx, s.LogContext(ctx))
}
