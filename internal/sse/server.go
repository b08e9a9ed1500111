// Package sse hosts the JSON-RPC dispatcher over Server-Sent Events,
// preserving the wire contract of the original transport: an endpoint
// event on connect, message frames for responses, keep-alive comments,
// an idle eviction sweep, and a hard connection cap.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lydakis/stability-mcp/internal/dispatch"
	"github.com/lydakis/stability-mcp/internal/metrics"
)

// maxFrameBytes bounds a single incoming message body. Base64 image
// arguments are large, so the bound is generous.
const maxFrameBytes = 48 << 20

// Options configure the SSE server. Zero values select the defaults.
type Options struct {
	SSEPath           string        // default /sse
	MessagePath       string        // default /message
	MaxConnections    int           // default 100
	IdleTimeout       time.Duration // default 30s
	HeartbeatInterval time.Duration // default 15s
}

// Server is the SSE transport frontend.
type Server struct {
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	opts       Options

	// now is stubbed in tests to simulate idle time.
	now func() time.Time

	mu    sync.Mutex
	conns map[string]*conn

	done      chan struct{}
	closeOnce sync.Once
}

// NewServer creates the SSE frontend around a dispatcher.
func NewServer(d *dispatch.Dispatcher, m *metrics.Metrics, logger *slog.Logger, opts Options) *Server {
	if opts.SSEPath == "" {
		opts.SSEPath = "/sse"
	}
	if opts.MessagePath == "" {
		opts.MessagePath = "/message"
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 100
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Second
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 15 * time.Second
	}

	return &Server{
		dispatcher: d,
		metrics:    m,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
		conns:      make(map[string]*conn),
		done:       make(chan struct{}),
	}
}

// Handler returns the HTTP handler covering the SSE stream, the message
// endpoint, and the health/metrics side routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.SSEPath, s.handleSSE)
	mux.HandleFunc(s.opts.MessagePath, s.handleMessage)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// Run serves until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.heartbeatLoop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops the heartbeat loop and closes every open connection.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.evict(c)
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Cap check happens before the connection enters the state machine.
	s.mu.Lock()
	if len(s.conns) >= s.opts.MaxConnections {
		s.mu.Unlock()
		s.metrics.ConnectionsRejected.Add(1)
		s.writeErrorFrame(w, http.StatusServiceUnavailable, "connection limit exceeded")
		return
	}
	c := newConn(uuid.NewString(), w, flusher, s.now())
	s.conns[c.id] = c
	s.mu.Unlock()

	s.metrics.ConnectionsTotal.Add(1)
	s.metrics.ConnectionsActive.Add(1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := c.writeFrame("endpoint", []byte(s.opts.MessagePath+"?sessionId="+c.id)); err != nil {
		s.evict(c)
		return
	}

	s.logger.Info("client connected", "session", c.id)

	select {
	case <-r.Context().Done():
	case <-c.done:
	case <-s.done:
	}

	s.evict(c)

	// Let any in-flight frame write finish before the handler returns
	// and the ResponseWriter becomes invalid.
	c.writeMu.Lock()
	c.writeMu.Unlock() //nolint:staticcheck // empty critical section is the barrier

	s.logger.Info("client disconnected", "session", c.id)
}

// evict closes a connection and removes it from the active set. The
// active gauge is decremented only on the call that actually removes it,
// so a connection is never double-counted.
func (s *Server) evict(c *conn) {
	c.close()

	s.mu.Lock()
	_, present := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()

	if present {
		s.metrics.ConnectionsActive.Add(-1)
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("sessionId")
	s.mu.Lock()
	c, ok := s.conns[id]
	s.mu.Unlock()
	if !ok {
		s.writeErrorFrame(w, http.StatusNotFound, "unknown session")
		return
	}
	c.touch(s.now())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil {
		s.writeErrorFrame(w, http.StatusBadRequest, "reading request body")
		return
	}

	resp := s.dispatcher.Handle(r.Context(), body)
	if resp != nil {
		data, merr := json.Marshal(resp)
		if merr != nil {
			s.logger.Error("marshaling response", "session", id, "error", merr)
			s.writeErrorFrame(w, http.StatusInternalServerError, "encoding response")
			return
		}
		if werr := c.writeFrame("message", data); werr != nil {
			// Transport failure tears down this connection only.
			s.logger.Warn("stream write failed", "session", id, "error", werr)
			s.evict(c)
			s.writeErrorFrame(w, http.StatusGone, "session stream closed")
			return
		}
		c.touch(s.now())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"}) //nolint:errcheck
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.metrics.Snapshot()) //nolint:errcheck
}

// heartbeatLoop sweeps connections on a fixed interval: idle ones are
// evicted, live ones get a keep-alive comment.
func (s *Server) heartbeatLoop() {
	ticker := time.NewTicker(s.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one heartbeat pass. Separated from the timer loop so tests
// can drive it with a fake clock.
func (s *Server) sweep() {
	now := s.now()

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if c.idleFor(now) > s.opts.IdleTimeout {
			s.logger.Info("evicting idle connection", "session", c.id, "idle", c.idleFor(now))
			s.metrics.ConnectionsEvicted.Add(1)
			s.evict(c)
			continue
		}
		if err := c.writeComment("keep-alive"); err != nil && !errors.Is(err, errClosed) {
			s.logger.Warn("keep-alive write failed", "session", c.id, "error", err)
			s.evict(c)
		}
	}
}

// writeErrorFrame sends a JSON-RPC error frame on a plain HTTP response,
// used for requests rejected before (or outside) the SSE state machine.
func (s *Server) writeErrorFrame(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&dispatch.Response{ //nolint:errcheck
		JSONRPC: "2.0",
		Error:   &dispatch.Error{Code: dispatch.CodeExecutionError, Message: message},
	})
}

// ActiveConnections reports the live connection count.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
