package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lydakis/stability-mcp/internal/dispatch"
	"github.com/lydakis/stability-mcp/internal/metrics"
	"github.com/lydakis/stability-mcp/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts Options) (*Server, *metrics.Metrics) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(
		mcp.NewTool("echo", mcp.WithString("text", mcp.Required())),
		func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			text, _ := args["text"].(string)
			return mcp.NewToolResultText(text), nil
		},
	))

	m := metrics.New()
	d := dispatch.New(reg, m, testLogger(), dispatch.Config{
		ServerName:    "stability-mcp",
		ServerVersion: "test",
		CallTimeout:   time.Second,
	})
	s := NewServer(d, m, testLogger(), opts)
	t.Cleanup(s.Close)
	return s, m
}

// sseEvent is one parsed frame off the stream.
type sseEvent struct {
	event string
	data  string
}

// readEvent reads the next non-comment frame from an SSE stream.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()

	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case line == "" && ev.data != "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "connections")
	assert.Contains(t, body, "requests")
}

func TestMessageUnknownSessionIsRejected(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/message?sessionId=nope",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp dispatch.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "unknown session")
}

func TestConnectionCapRejectsBeforeHandshake(t *testing.T) {
	s, m := newTestServer(t, Options{MaxConnections: 1})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	// First client occupies the only slot.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	first, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	require.NoError(t, err)
	resp1, err := http.DefaultClient.Do(first)
	require.NoError(t, err)
	t.Cleanup(func() { resp1.Body.Close() })
	readEvent(t, bufio.NewReader(resp1.Body)) // wait for the endpoint event

	// Second client is turned away with an error frame, never a stream.
	resp2, err := http.Get(ts.URL + "/sse")
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
	assert.Equal(t, "application/json", resp2.Header.Get("Content-Type"))

	var frame dispatch.Response
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&frame))
	require.NotNil(t, frame.Error)
	assert.Equal(t, dispatch.CodeExecutionError, frame.Error.Code)
	assert.Contains(t, frame.Error.Message, "connection limit exceeded")

	assert.Equal(t, int64(1), m.ConnectionsRejected.Load())
	assert.Equal(t, 1, s.ActiveConnections())
}

func TestSweepEvictsIdleConnectionsExactlyOnce(t *testing.T) {
	s, m := newTestServer(t, Options{IdleTimeout: 30 * time.Second})

	base := time.Now()
	s.now = func() time.Time { return base }

	c := newConn("idle-session", httptest.NewRecorder(), nopFlusher{}, base)
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	m.ConnectionsActive.Add(1)

	// Still fresh: sweep keeps it alive.
	s.sweep()
	assert.Equal(t, 1, s.ActiveConnections())
	assert.Equal(t, int64(0), m.ConnectionsEvicted.Load())

	// 31 seconds of silence crosses the idle threshold.
	s.now = func() time.Time { return base.Add(31 * time.Second) }
	s.sweep()
	assert.Equal(t, 0, s.ActiveConnections())
	assert.Equal(t, int64(1), m.ConnectionsEvicted.Load())
	assert.Equal(t, int64(0), m.ConnectionsActive.Load())

	select {
	case <-c.done:
	default:
		t.Fatal("evicted connection was not closed")
	}

	// A second sweep finds nothing and must not double-decrement.
	s.sweep()
	assert.Equal(t, int64(0), m.ConnectionsActive.Load())
	assert.Equal(t, int64(1), m.ConnectionsEvicted.Load())
}

func TestSweepWritesKeepAliveToLiveConnections(t *testing.T) {
	s, _ := newTestServer(t, Options{IdleTimeout: time.Minute})

	var buf syncBuffer
	c := newConn("live-session", &buf, nopFlusher{}, time.Now())
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	s.sweep()
	assert.Contains(t, buf.String(), ": keep-alive\n\n")
	assert.Equal(t, 1, s.ActiveConnections())
}

func TestEndToEndToolCallOverSSE(t *testing.T) {
	s, m := newTestServer(t, Options{})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	endpoint := readEvent(t, reader)
	require.Equal(t, "endpoint", endpoint.event)
	u, err := url.Parse(endpoint.data)
	require.NoError(t, err)
	session := u.Query().Get("sessionId")
	require.NotEmpty(t, session)

	post, err := http.Post(
		fmt.Sprintf("%s/message?sessionId=%s", ts.URL, session),
		"application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`),
	)
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusAccepted, post.StatusCode)

	msg := readEvent(t, reader)
	assert.Equal(t, "message", msg.event)

	var frame dispatch.Response
	require.NoError(t, json.Unmarshal([]byte(msg.data), &frame))
	require.Nil(t, frame.Error)
	assert.Equal(t, float64(3), frame.ID)
	assert.Contains(t, msg.data, `"hi"`)

	assert.Equal(t, int64(1), m.ConnectionsTotal.Load())
	assert.Equal(t, int64(1), m.ToolCalls.Load())
}

// nopFlusher satisfies http.Flusher for connections built on recorders.
type nopFlusher struct{}

func (nopFlusher) Flush() {}

// syncBuffer is a ResponseWriter capturing everything written to it.
type syncBuffer struct {
	bytes.Buffer
	header http.Header
}

func (b *syncBuffer) Header() http.Header {
	if b.header == nil {
		b.header = make(http.Header)
	}
	return b.header
}

func (b *syncBuffer) WriteHeader(int) {}
