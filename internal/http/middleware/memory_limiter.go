package middleware

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local fixed-window counter. Bursts across a
// window boundary can admit up to twice the nominal rate, which is fine for
// abuse deterrence. A horizontally scaled deployment should use the Redis
// limiter instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	max    int
	window time.Duration

	now      func() time.Time
	stopOnce sync.Once
	stop     chan struct{}
}

type windowEntry struct {
	start time.Time
	count int
}

// NewMemoryLimiter creates a limiter admitting max requests per key per
// window and starts a background sweep of stale entries so the key set does
// not grow without bound.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow counts one request against key's current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.entries[key]
	if !ok {
		rec = &windowEntry{start: now}
		l.entries[key] = rec
	}

	// Window expired: restart counting from now.
	if now.Sub(rec.start) > l.window {
		rec.start = now
		rec.count = 0
	}

	rec.count++
	return rec.count <= l.max, nil
}

// Stop terminates the background sweep.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) sweep() {
	interval := l.window
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := l.now()
			l.mu.Lock()
			for key, rec := range l.entries {
				if now.Sub(rec.start) > l.window {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}
