// Package dispatch implements the JSON-RPC 2.0 subset spoken over the SSE
// transport: initialize, tools/list, tools/call, and ping.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/metrics"
	"github.com/lydakis/stability-mcp/internal/registry"
)

// JSON-RPC error codes used on the wire.
const (
	CodeParseError         = -32700
	CodeMethodNotFound     = -32601
	CodeInvalidParams      = -32602
	CodeUnsupportedVersion = -32002
	CodeExecutionError     = -32000
)

// SupportedProtocolVersions is the initialize negotiation allow-list.
var SupportedProtocolVersions = []string{"2024-11-05", "2025-03-26"}

// Request is one incoming JSON-RPC frame. ID is kept raw so its type can
// be validated (string or number only).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one outgoing JSON-RPC frame.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Config carries the dispatcher's identity and limits, advertised during
// initialize.
type Config struct {
	ServerName     string
	ServerVersion  string
	CallTimeout    time.Duration
	MaxConnections int
	IdleTimeout    time.Duration
}

// Dispatcher routes JSON-RPC frames to registry tools.
type Dispatcher struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
}

// New creates a dispatcher. A zero CallTimeout defaults to 30 seconds.
func New(reg *registry.Registry, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Dispatcher{reg: reg, metrics: m, logger: logger, cfg: cfg}
}

// Handle processes one raw frame and returns the response frame, or nil
// for notifications. It never panics and never returns malformed output:
// every failure becomes an error response.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) *Response {
	d.metrics.Requests.Add(1)

	req, id, perr := parseFrame(raw)
	if perr != nil {
		d.metrics.ParseErrors.Add(1)
		// Best-effort: id may be absent or unusable at this point.
		return errorResponse(id, CodeParseError, perr.Error(), nil)
	}

	switch req.Method {
	case "initialize":
		return d.handleInitialize(id, req.Params)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return d.handleToolsList(id)
	case "tools/call":
		return d.handleToolsCall(ctx, id, req.Params)
	case "ping":
		return d.handlePing(id)
	default:
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

// parseFrame validates the envelope: JSON syntax, jsonrpc version, id type
// (string or number), method type. All violations are parse errors.
func parseFrame(raw []byte) (*Request, any, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, nil, fmt.Errorf("parse error: %v", err)
	}
	if req.JSONRPC != "2.0" {
		return nil, nil, fmt.Errorf(`parse error: jsonrpc must be "2.0"`)
	}

	var id any
	if len(req.ID) > 0 {
		var s string
		var n float64
		switch {
		case json.Unmarshal(req.ID, &s) == nil:
			id = s
		case json.Unmarshal(req.ID, &n) == nil:
			id = n
		default:
			return nil, nil, fmt.Errorf("parse error: id must be a string or number")
		}
	}

	if req.Method == "" {
		return nil, id, fmt.Errorf("parse error: method must be a string")
	}
	return &req, id, nil
}

func (d *Dispatcher) handleInitialize(id any, params json.RawMessage) *Response {
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return errorResponse(id, CodeInvalidParams, "invalid initialize params", nil)
		}
	}

	supported := false
	for _, v := range SupportedProtocolVersions {
		if p.ProtocolVersion == v {
			supported = true
			break
		}
	}
	if !supported {
		// No capability data on rejection.
		return errorResponse(id, CodeUnsupportedVersion,
			fmt.Sprintf("unsupported protocol version: %q", p.ProtocolVersion),
			map[string]any{"supported": SupportedProtocolVersions})
	}

	return result(id, map[string]any{
		"protocolVersion": p.ProtocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    d.cfg.ServerName,
			"version": d.cfg.ServerVersion,
		},
		"tools": d.reg.List(),
		"limits": map[string]any{
			"maxConnections": d.cfg.MaxConnections,
			"callTimeout":    d.cfg.CallTimeout.String(),
			"idleTimeout":    d.cfg.IdleTimeout.String(),
		},
	})
}

func (d *Dispatcher) handleToolsList(id any) *Response {
	return result(id, map[string]any{"tools": d.reg.List()})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, id any, params json.RawMessage) *Response {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(params) == 0 || json.Unmarshal(params, &p) != nil || p.Name == "" {
		return errorResponse(id, CodeInvalidParams, "tools/call requires params.name", nil)
	}

	tool, ok := d.reg.Lookup(p.Name)
	if !ok {
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("tool not found: %s", p.Name), nil)
	}

	d.metrics.ToolCalls.Add(1)

	res, err := d.callWithTimeout(ctx, tool, p.Arguments)
	if err != nil {
		d.metrics.ToolErrors.Add(1)
		d.logger.Warn("tool call failed", "tool", p.Name, "error", err)
		return errorResponse(id, CodeExecutionError, err.Error(), nil)
	}
	return result(id, res)
}

// callWithTimeout runs the handler under the call timeout. The context is
// threaded through to the outbound HTTP request, so hitting the timeout
// aborts the upstream call rather than abandoning it. A late result from
// the handler goroutine is discarded via the buffered channel.
func (d *Dispatcher) callWithTimeout(ctx context.Context, tool *registry.Tool, args map[string]any) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()

	type outcome struct {
		res *mcp.CallToolResult
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		res, err := tool.Handler(ctx, args)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			d.metrics.ToolTimeouts.Add(1)
			return nil, fmt.Errorf("tool call timed out after %s", d.cfg.CallTimeout)
		}
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) handlePing(id any) *Response {
	d.metrics.Pings.Add(1)
	return result(id, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"server":    d.cfg.ServerName + "/" + d.cfg.ServerVersion,
	})
}

func result(id, res any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: res}
}

func errorResponse(id any, code int, message string, data any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message, Data: data}}
}
