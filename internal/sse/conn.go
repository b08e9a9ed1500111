package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// errClosed is returned by writes to a connection that has been closed.
var errClosed = errors.New("sse: connection closed")

// conn is one open SSE session. All writes to the output stream are
// serialized behind writeMu so heartbeat comments never interleave with
// response frames.
type conn struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher

	writeMu      sync.Mutex
	closed       bool
	closeOnce    sync.Once
	done         chan struct{}
	lastActivity atomic.Int64 // unix nanos
}

func newConn(id string, w http.ResponseWriter, flusher http.Flusher, now time.Time) *conn {
	c := &conn{
		id:      id,
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	c.touch(now)
	return c
}

// touch records client activity, resetting the idle clock.
func (c *conn) touch(now time.Time) {
	c.lastActivity.Store(now.UnixNano())
}

func (c *conn) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, c.lastActivity.Load()))
}

// close marks the connection closed. Safe to call multiple times; the
// underlying stream is released exactly once, when the SSE handler
// returns.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.closed = true
		c.writeMu.Unlock()
		close(c.done)
	})
}

// writeFrame writes one SSE event. The closed check happens under the
// write lock so no write can start after close wins the lock.
func (c *conn) writeFrame(event string, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return errClosed
	}
	if event != "" {
		if _, err := fmt.Fprintf(c.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", data); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// writeComment writes an SSE comment line (keep-alive).
func (c *conn) writeComment(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return errClosed
	}
	if _, err := fmt.Fprintf(c.w, ": %s\n\n", text); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}
