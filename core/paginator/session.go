// Package paginator lets the invoking user flip through a multi-page document
// using reaction controls attached to the bot's own message.
package paginator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/logger"
)

const component = "pager"

// retryPause throttles the loop when the event source fails without blocking.
const retryPause = 250 * time.Millisecond

var errIdle = errors.New("paginator: idle timeout")

// Session is one paginated message and the state machine driving it.
// The navigation loop is the single writer of the current page.
type Session struct {
	id       string
	pages    []*Embed
	opts     options
	controls controlSet
	last     int

	mu        sync.Mutex
	started   bool
	running   bool
	current   int
	message   MessageRef
	owner     string
	channel   string
	messenger Messenger
	events    EventSource
	cancel    context.CancelFunc
	tasks     sync.WaitGroup

	done     chan struct{}
	doneOnce sync.Once
}

// New prepares a session over pages. Content is validated by Start.
// Two pages always use the compact control set.
func New(pages []*Embed, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if len(pages) == 2 {
		o.compact = true
	}
	last := len(pages) - 1
	if last < 0 {
		last = 0
	}
	return &Session{
		id:       uuid.NewString(),
		pages:    append([]*Embed(nil), pages...),
		opts:     o,
		controls: newControlSet(o.compact, o.input, last),
		last:     last,
		done:     make(chan struct{}),
	}
}

// NewSingle is a convenience for a one-page document with an optional file.
func NewSingle(page *Embed, file *File, opts ...Option) *Session {
	var pages []*Embed
	if page != nil {
		pages = []*Embed{page}
	}
	all := append([]Option(nil), opts...)
	if file != nil {
		all = append(all, WithFiles(file))
	}
	return New(pages, all...)
}

func validate(pages []*Embed) error {
	if len(pages) == 0 {
		return ErrInvalidContent
	}
	for i, p := range pages {
		if p == nil {
			return &InvalidContentTypeError{Index: i}
		}
	}
	return nil
}

// Start sends the first page. With more than one page it attaches the controls
// and runs the navigation loop in the background until the session stops.
// Cancelling ctx ends the session as StopShutdown.
func (s *Session) Start(ctx context.Context, inv Invocation) error {
	if err := validate(s.pages); err != nil {
		return err
	}
	multi := len(s.pages) > 1
	if inv.Messenger == nil || (multi && inv.Events == nil) {
		return ErrNoMessenger
	}

	ctx = s.logContext(ctx)

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.owner = inv.Owner
	s.channel = inv.Channel
	s.messenger = inv.Messenger
	s.events = inv.Events
	s.mu.Unlock()

	msg, err := s.messenger.Send(ctx, inv.Channel, renderPage(s.pages, s.opts.files, 0))
	if err != nil {
		s.finish()
		return fmt.Errorf("paginator: send first page: %w", err)
	}

	if !multi {
		s.mu.Lock()
		s.message = msg
		s.mu.Unlock()
		s.finish()
		s.log(ctx, slog.LevelDebug, "session.single",
			slog.String("msg_id", msg.MessageID),
		)
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.message = msg
	s.running = true
	s.cancel = cancel
	s.tasks.Add(1)
	s.mu.Unlock()

	s.log(ctx, slog.LevelInfo, "session.start",
		slog.String("msg_id", msg.MessageID),
		slog.Int("pages", len(s.pages)),
		slog.Bool("compact", s.opts.compact),
	)
	if s.opts.journal != nil {
		err := s.opts.journal.SessionStarted(ctx, SessionInfo{
			ID:        s.id,
			Label:     s.opts.label,
			Owner:     s.owner,
			Message:   msg,
			Pages:     len(s.pages),
			StartedAt: time.Now(),
		})
		if err != nil {
			s.log(ctx, slog.LevelWarn, "session.journal_fail", slog.String("err", err.Error()))
		}
	}

	go func() {
		defer s.tasks.Done()
		s.attachControls(loopCtx)
	}()
	go s.run(loopCtx)
	return nil
}

// Stop ends the session. StopRequested deletes the bound message, other reasons
// only clear its reactions. Remote failures are ignored. Calling Stop on a
// stopped or never started session does nothing.
func (s *Session) Stop(ctx context.Context, reason StopReason) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	msg, cancel, page := s.message, s.cancel, s.current
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// An AddReaction already in flight must land before the controls are cleared.
	s.tasks.Wait()

	rctx, rcancel := s.remoteContext(ctx)
	defer rcancel()
	if reason.keepsMessage() {
		s.remoteFailed(rctx, "clear_reactions", s.messenger.ClearReactions(rctx, msg))
	} else {
		s.remoteFailed(rctx, "delete", s.messenger.Delete(rctx, msg))
	}

	if s.opts.journal != nil {
		if err := s.opts.journal.SessionEnded(rctx, s.id, reason, page); err != nil {
			s.log(rctx, slog.LevelWarn, "session.journal_fail", slog.String("err", err.Error()))
		}
	}
	s.log(rctx, slog.LevelInfo, "session.stop",
		slog.String("msg_id", msg.MessageID),
		slog.String("reason", reason.String()),
		slog.Int("page", page),
	)
}

func (s *Session) run(ctx context.Context) {
	defer s.finish()
	defer s.tasks.Wait()

	for s.Running() {
		ev, err := s.nextReaction(ctx)
		switch {
		case err == nil:
			s.handle(ctx, ev)
		case errors.Is(err, errIdle):
			s.Stop(ctx, StopTimedOut)
			return
		case ctx.Err() != nil:
			s.Stop(ctx, StopShutdown)
			return
		default:
			s.log(ctx, slog.LevelDebug, "session.wait_fail", slog.String("err", err.Error()))
			if !sleep(ctx, retryPause) {
				s.Stop(ctx, StopShutdown)
				return
			}
		}
	}
}

// nextReaction races an added and a removed reaction wait against the idle
// timeout. The shared context cancels whichever wait loses.
func (s *Session) nextReaction(ctx context.Context) (events.Event, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.idleTimeout)
	defer cancel()

	type result struct {
		ev  events.Event
		err error
	}
	results := make(chan result, 2)
	for _, kind := range [...]events.Kind{events.ReactionAdded, events.ReactionRemoved} {
		go func(kind events.Kind) {
			ev, err := s.events.Wait(waitCtx, kind, s.accepts)
			results <- result{ev: ev, err: err}
		}(kind)
	}

	r := <-results
	if r.err == nil {
		return r.ev, nil
	}
	if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return events.Event{}, errIdle
	}
	return events.Event{}, r.err
}

// accepts is the predicate for reaction events: right message, owner only, known control.
func (s *Session) accepts(ev events.Event) bool {
	if ev.MessageID != s.message.MessageID || ev.UserID != s.owner {
		return false
	}
	if ev.ChannelID != "" && s.message.ChannelID != "" && ev.ChannelID != s.message.ChannelID {
		return false
	}
	_, ok := s.controls.lookup(ev.Symbol)
	return ok
}

func (s *Session) handle(ctx context.Context, ev events.Event) {
	d, ok := s.controls.lookup(ev.Symbol)
	if !ok {
		return
	}

	from := s.Current()

	var to int
	switch d.Kind {
	case DirectiveStop:
		s.Stop(ctx, StopRequested)
		return
	case DirectiveInput:
		idx, ok := s.askPage(ctx)
		if !ok {
			return
		}
		to = idx
	default:
		to = navigate(d, from, s.last)
	}

	if to == from {
		s.log(ctx, slog.LevelDebug, "session.nav",
			slog.String("symbol", ev.Symbol),
			slog.String("directive", d.Kind.String()),
			slog.Int("page", from),
			slog.String("status", "skip"),
		)
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.current = to
	s.mu.Unlock()

	s.log(ctx, slog.LevelDebug, "session.nav",
		slog.String("symbol", ev.Symbol),
		slog.String("directive", d.Kind.String()),
		slog.Int("page", to),
		slog.String("status", "ok"),
	)
	page := renderPage(s.pages, s.opts.files, to)
	s.remoteFailed(ctx, "edit", s.messenger.Edit(ctx, s.message, page))
}

// askPage prompts the owner for a page number and returns the target index.
// It reports false on timeout or when the session is stopped meanwhile.
func (s *Session) askPage(ctx context.Context) (int, bool) {
	var trash []MessageRef
	defer func() { s.cleanup(ctx, trash) }()

	prompt, err := s.messenger.SendText(ctx, s.channel, s.opts.prompts.Ask)
	if err != nil {
		s.remoteFailed(ctx, "send_prompt", err)
	} else {
		trash = append(trash, prompt)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.inputTimeout)
	reply, err := s.events.Wait(waitCtx, events.MessageCreated, s.acceptsNumber)
	cancel()

	if err == nil {
		trash = append(trash, MessageRef{ChannelID: reply.ChannelID, MessageID: reply.MessageID})
		return pageFromNumber(parseNumber(reply.Content), s.last), true
	}
	if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	notice, err := s.messenger.SendText(ctx, s.channel, s.opts.prompts.TooSlow)
	if err != nil {
		s.remoteFailed(ctx, "send_notice", err)
	} else {
		trash = append(trash, notice)
	}
	sleep(ctx, s.opts.noticeDelay)
	return 0, false
}

// acceptsNumber matches a purely numeric reply from the owner in the session channel.
func (s *Session) acceptsNumber(ev events.Event) bool {
	if ev.UserID != s.owner || ev.ChannelID != s.channel {
		return false
	}
	return isDigits(strings.TrimSpace(ev.Content))
}

func (s *Session) cleanup(ctx context.Context, msgs []MessageRef) {
	if len(msgs) == 0 {
		return
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	s.remoteFailed(rctx, "delete_messages", s.messenger.DeleteMessages(rctx, s.channel, msgs))
}

func (s *Session) attachControls(ctx context.Context) {
	for _, c := range s.controls.ordered {
		if ctx.Err() != nil {
			return
		}
		s.remoteFailed(ctx, "add_reaction", s.messenger.AddReaction(ctx, s.message, c.Symbol))
	}
}

// remoteContext detaches from session cancellation so cleanup still reaches the platform.
func (s *Session) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.remoteTimeout)
}

func (s *Session) remoteFailed(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	s.log(ctx, slog.LevelDebug, "session.remote_fail",
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
}

func (s *Session) log(ctx context.Context, level slog.Level, event string, attrs ...slog.Attr) {
	if s.opts.label != "" {
		attrs = append([]slog.Attr{slog.String("document", s.opts.label)}, attrs...)
	}
	logger.Event(s.logContext(ctx), component, level, event, attrs...)
}

// logContext tags ctx with the session id unless it already carries one.
func (s *Session) logContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger.SessionFrom(ctx) == s.id {
		return ctx
	}
	return logger.WithSession(ctx, s.id)
}

// finish marks the session done and lets the messenger drop what it kept for
// the bound message.
func (s *Session) finish() {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		msg, m := s.message, s.messenger
		s.mu.Unlock()
		if r, ok := m.(Releaser); ok && !msg.IsZero() {
			r.Release(msg)
		}
		close(s.done)
	})
}

// ID returns the session identifier used in logs and the journal.
func (s *Session) ID() string { return s.id }

// Current returns the index of the page on display.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Running reports whether the navigation loop is still accepting controls.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Owner returns the user allowed to drive the session.
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Message returns the bound message, zero before Start.
func (s *Session) Message() MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Compact reports whether the reduced control set is in use.
func (s *Session) Compact() bool { return s.opts.compact }

// Controls returns the controls in the order they are attached.
func (s *Session) Controls() []Control { return s.controls.controls() }

// Pages returns the number of pages.
func (s *Session) Pages() int { return len(s.pages) }

// Done is closed once the session and its background tasks have finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until Done or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseNumber converts a digit string; values too large for int saturate.
func parseNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return math.MaxInt
	}
	return n
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
