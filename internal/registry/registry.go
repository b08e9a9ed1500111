// Package registry is the static catalogue of callable tools, shared by
// every transport frontend.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// nameRe restricts tool names to alphanumerics, underscore, hyphen, slash.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

// Handler executes one tool call with validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Tool pairs a tool definition with its handler.
type Tool struct {
	Def     mcp.Tool
	Handler Handler
}

// Registry maps tool names to definitions and handlers. Registration
// happens once at process start; lookups are concurrent afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are an error: silent overwrite
// would mask a wiring mistake at startup.
func (r *Registry) Register(def mcp.Tool, h Handler) error {
	if !nameRe.MatchString(def.Name) {
		return fmt.Errorf("registry: invalid tool name %q", def.Name)
	}
	if h == nil {
		return fmt.Errorf("registry: tool %q has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("registry: tool %q already registered", def.Name)
	}
	r.tools[def.Name] = &Tool{Def: def, Handler: h}
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup returns the tool for name, or false if it is not registered.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tool definitions in registration order, for capability
// advertisement.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// Tools returns all tools in registration order.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
