package paginator

import "context"

// LogContext exposes the context sessions log with.
func (s *Session) LogContext(ctx context.Context) context.Context {
	return s.logContext(ctx)
}
