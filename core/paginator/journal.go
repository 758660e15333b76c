package paginator

import (
	"context"
	"time"
)

// StopReason tells why a session ended.
type StopReason int

const (
	// StopRequested is an explicit stop by the owner; the message is deleted.
	StopRequested StopReason = iota + 1
	// StopTimedOut follows the idle timeout; reactions are cleared and the message kept.
	StopTimedOut
	// StopShutdown ends the session because the host is going away; handled like a timeout.
	StopShutdown
)

func (r StopReason) String() string {
	switch r {
	case StopRequested:
		return "requested"
	case StopTimedOut:
		return "timed_out"
	case StopShutdown:
		return "shutdown"
	}
	return "unknown"
}

// keepsMessage reports whether the bound message survives the stop.
func (r StopReason) keepsMessage() bool {
	return r != StopRequested
}

// SessionInfo describes a session when it starts.
type SessionInfo struct {
	ID        string
	Label     string
	Owner     string
	Message   MessageRef
	Pages     int
	StartedAt time.Time
}

// Journal records session lifecycles. Errors are logged and otherwise ignored.
type Journal interface {
	SessionStarted(ctx context.Context, info SessionInfo) error
	SessionEnded(ctx context.Context, id string, reason StopReason, page int) error
}
