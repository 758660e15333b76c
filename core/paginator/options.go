package paginator

import "time"

const (
	// DefaultIdleTimeout ends a session when no control is used for this long.
	DefaultIdleTimeout = 90 * time.Second
	// DefaultInputTimeout bounds the wait for a typed page number.
	DefaultInputTimeout = 30 * time.Second
	// DefaultNoticeDelay keeps the "too slow" notice visible before cleanup.
	DefaultNoticeDelay = 5 * time.Second

	defaultRemoteTimeout = 10 * time.Second
)

// Prompts are the texts shown during numeric input.
type Prompts struct {
	Ask     string
	TooSlow string
}

// DefaultPrompts returns the built-in English prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		Ask:     "What page do you want to go to?",
		TooSlow: "You took too long to enter a number.",
	}
}

type options struct {
	files         []*File
	compact       bool
	input         bool
	idleTimeout   time.Duration
	inputTimeout  time.Duration
	noticeDelay   time.Duration
	remoteTimeout time.Duration
	prompts       Prompts
	journal       Journal
	label         string
}

func defaultOptions() options {
	return options{
		input:         true,
		idleTimeout:   DefaultIdleTimeout,
		inputTimeout:  DefaultInputTimeout,
		noticeDelay:   DefaultNoticeDelay,
		remoteTimeout: defaultRemoteTimeout,
		prompts:       DefaultPrompts(),
	}
}

// Option customises a Session.
type Option func(*options)

// WithFiles attaches files index-aligned with pages. Nil entries mean no attachment.
func WithFiles(files ...*File) Option {
	return func(o *options) { o.files = append([]*File(nil), files...) }
}

// WithCompact limits controls to previous, stop and next.
func WithCompact(compact bool) Option {
	return func(o *options) { o.compact = compact }
}

// WithInput enables or disables the numeric input control.
func WithInput(enabled bool) Option {
	return func(o *options) { o.input = enabled }
}

// WithIdleTimeout overrides DefaultIdleTimeout. Non-positive values are ignored.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithInputTimeout overrides DefaultInputTimeout. Non-positive values are ignored.
func WithInputTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.inputTimeout = d
		}
	}
}

// WithNoticeDelay overrides DefaultNoticeDelay. Negative values are ignored.
func WithNoticeDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.noticeDelay = d
		}
	}
}

// WithPrompts replaces non-empty prompt texts.
func WithPrompts(p Prompts) Option {
	return func(o *options) {
		if p.Ask != "" {
			o.prompts.Ask = p.Ask
		}
		if p.TooSlow != "" {
			o.prompts.TooSlow = p.TooSlow
		}
	}
}

// WithJournal records session start and end.
func WithJournal(j Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithLabel names the session in logs and the journal, typically the document name.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}
