// Package metrics keeps process-local counters exposed on /metrics.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics is a set of atomic counters. Counters only ever increase except
// ConnectionsActive, which tracks the live connection count.
type Metrics struct {
	ConnectionsTotal    atomic.Int64
	ConnectionsActive   atomic.Int64
	ConnectionsRejected atomic.Int64
	ConnectionsEvicted  atomic.Int64

	Requests    atomic.Int64
	ParseErrors atomic.Int64
	Pings       atomic.Int64

	ToolCalls    atomic.Int64
	ToolErrors   atomic.Int64
	ToolTimeouts atomic.Int64

	started time.Time
}

// New creates a metrics set with the uptime clock started now.
func New() *Metrics {
	return &Metrics{started: time.Now()}
}

// Snapshot returns the current counter values for the /metrics endpoint.
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"uptime_seconds": int64(time.Since(m.started).Seconds()),
		"connections": map[string]int64{
			"total":    m.ConnectionsTotal.Load(),
			"active":   m.ConnectionsActive.Load(),
			"rejected": m.ConnectionsRejected.Load(),
			"evicted":  m.ConnectionsEvicted.Load(),
		},
		"requests": map[string]int64{
			"total":        m.Requests.Load(),
			"parse_errors": m.ParseErrors.Load(),
			"pings":        m.Pings.Load(),
		},
		"tools": map[string]int64{
			"calls":    m.ToolCalls.Load(),
			"errors":   m.ToolErrors.Load(),
			"timeouts": m.ToolTimeouts.Load(),
		},
	}
}
