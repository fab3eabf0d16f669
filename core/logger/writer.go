package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// sink is one destination of the async writer.
type sink struct {
	w io.Writer
	// warnOnly restricts the sink to WARN and above.
	warnOnly bool
}

type pending struct {
	level slog.Level
	line  []byte
}

// asyncWriter fans formatted lines out to its sinks from a single goroutine.
type asyncWriter struct {
	queue   chan pending
	flushes chan chan error
	done    chan struct{}

	// sendMu guards queue against sends after Close.
	sendMu sync.RWMutex
	closed bool

	mu   sync.Mutex
	bufs []*bufio.Writer
	warn []bool
	err  error
}

func newAsyncWriter(sinks []sink, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:   make(chan pending, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, s := range sinks {
		if s.w == nil {
			continue
		}
		w.bufs = append(w.bufs, bufio.NewWriterSize(s.w, bufSize))
		w.warn = append(w.warn, s.warnOnly)
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case p, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			w.write(p)
		case ack := <-w.flushes:
			ack <- w.flush()
		}
	}
}

// Write copies line and queues it. A full queue blocks instead of dropping.
func (w *asyncWriter) Write(level slog.Level, line []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- pending{level: level, line: append([]byte(nil), line...)}
	return nil
}

// Flush blocks until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.sendMu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) write(p pending) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, b := range w.bufs {
		if w.warn[i] && p.level < slog.LevelWarn {
			continue
		}
		if _, err := b.Write(p.line); err != nil {
			w.setErrLocked(err)
			continue
		}
		if err := b.Flush(); err != nil {
			w.setErrLocked(err)
		}
	}
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, b := range w.bufs {
		errs = append(errs, b.Flush())
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErrLocked(err error) {
	if w.err == nil {
		w.err = err
	}
}
