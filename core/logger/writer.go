package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// request is either a log line or, when ack is set, a flush barrier.
type request struct {
	line []byte
	ack  chan error
}

// asyncWriter fans log lines out to several sinks from a single goroutine,
// so handlers never block on slow files or terminals.
type asyncWriter struct {
	reqs   chan request
	closed chan struct{}
	once   sync.Once
	sinks  []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		reqs:   make(chan request, 256),
		closed: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.closed)
	for req := range w.reqs {
		if req.ack != nil {
			req.ack <- w.flush()
			continue
		}
		w.fail(w.write(req.line))
	}
	w.fail(w.flush())
}

// Write copies p and queues it. A full queue blocks rather than dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.reqs <- request{line: append([]byte(nil), p...)}
	return nil
}

// Flush waits until every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.Err(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.reqs <- request{ack: ack}
	return <-ack
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.reqs) })
	<-w.closed
	return w.Err()
}

// Err returns the first error reported by a sink.
func (w *asyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) write(line []byte) error {
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			return err
		}
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
