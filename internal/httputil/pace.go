// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between consecutive requests to one
// service. Literature APIs publish crawl limits (arXiv asks for 3s between
// requests); each source owns one Pacer and calls Wait before every request.
// The first request proceeds immediately.
type Pacer struct {
	// Interval is the minimum gap between requests. Zero disables pacing.
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPacer returns a Pacer with the given minimum interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Wait blocks until the interval since the previous request has elapsed,
// or the context is done. It records the new request time before returning
// so concurrent callers queue behind each other.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.Interval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.Interval)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
