// Package keypool holds the ordered set of Stability API credentials and
// executes calls with rotation on auth rejection and bounded backoff retry.
package keypool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// sleepFn is stubbed in tests to avoid real backoff waits.
var sleepFn = sleepContext

// authError is implemented by errors that indicate a rejected credential
// (HTTP 401 or 403 from the upstream API).
type authError interface {
	AuthFailure() bool
}

// Pool is an ordered list of API keys with a rotating current index.
// The index is always < len(keys); rotation wraps and is a no-op for
// pools of a single key.
type Pool struct {
	mu    sync.Mutex
	keys  []string
	index int
}

// New creates a pool from the given keys in fallback order.
func New(keys ...string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, errors.New("keypool: at least one key required")
	}
	for i, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("keypool: key %d is empty", i)
		}
	}
	return &Pool{keys: append([]string(nil), keys...)}, nil
}

// Size returns the number of keys in the pool.
func (p *Pool) Size() int {
	return len(p.keys)
}

// Current returns the currently selected key.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys[p.index]
}

// Index returns the current index, for diagnostics.
func (p *Pool) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Rotate advances to the next key, wrapping at the end, and returns the
// newly selected key. A pool of one key rotates to itself.
func (p *Pool) Rotate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) > 1 {
		p.index = (p.index + 1) % len(p.keys)
	}
	return p.keys[p.index]
}

// Do invokes fn with the current key, retrying up to maxAttempts times.
// An auth failure rotates the pool and retries immediately; any other
// failure retries the same key after 2^attempt seconds (zero-indexed).
// maxAttempts <= 0 defaults to the pool size.
//
// A single-key pool fails fast on auth rejection: rotating to the same
// rejected credential cannot change the outcome.
func (p *Pool) Do(ctx context.Context, maxAttempts int, fn func(ctx context.Context, key string) error) error {
	if maxAttempts <= 0 {
		maxAttempts = p.Size()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx, p.Current())
		if err == nil {
			return nil
		}
		lastErr = err

		if isAuthFailure(err) {
			if p.Size() <= 1 {
				return err
			}
			p.Rotate()
			continue
		}

		if attempt < maxAttempts-1 {
			if serr := sleepFn(ctx, backoff(attempt)); serr != nil {
				return lastErr
			}
		}
	}

	if lastErr == nil {
		return errors.New("keypool: all attempts failed")
	}
	return lastErr
}

func isAuthFailure(err error) bool {
	var ae authError
	return errors.As(err, &ae) && ae.AuthFailure()
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
