// Package ratelimit provides fixed-window request limiters keyed by caller.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter counts hits per key inside a fixed window.
// Allow reports whether the hit fits and, if not, how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type window struct {
	start time.Time
	count int
}

// FixedWindowLimiter keeps counters in process memory. Windows reset lazily on the next hit.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (rl *FixedWindowLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	win, ok := rl.clients[key]
	if !ok || now.Sub(win.start) >= rl.window {
		rl.clients[key] = &window{start: now, count: 1}
		return true, 0, nil
	}
	if win.count < rl.limit {
		win.count++
		return true, 0, nil
	}
	return false, win.start.Add(rl.window).Sub(now), nil
}

// sweep drops expired windows once the map grows large.
func (rl *FixedWindowLimiter) sweep(now time.Time) {
	if len(rl.clients) < 10_000 {
		return
	}
	for key, win := range rl.clients {
		if now.Sub(win.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
}
