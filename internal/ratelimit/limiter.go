// Package ratelimit enforces per-client fixed-window request limits.
package ratelimit

import (
	"sync"
	"time"

	"github.com/recovr-ai/matching-engine/internal/observability"
)

// Config defines rate limiting behavior.
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit int
	// Window is the fixed window length.
	Window time.Duration
	// CleanupInterval is how often idle windows are swept.
	CleanupInterval time.Duration
	// Enabled controls whether limiting is active.
	Enabled bool
}

// DefaultConfig returns the default limit of 20 requests per minute.
func DefaultConfig() Config {
	return Config{
		Limit:           20,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// window tracks request counts for one client in the current fixed window.
type windowEntry struct {
	count    int
	start    time.Time
	lastSeen time.Time
}

// Limiter is a fixed-window rate limiter keyed by client identifier.
// Counts reset fully when a window elapses rather than sliding.
type Limiter struct {
	config  Config
	windows map[string]*windowEntry
	mu      sync.Mutex
	logger  *observability.Logger
	now     func() time.Time

	stopSweep chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a rate limiter and starts its idle-window sweeper.
func New(config Config, logger *observability.Logger) *Limiter {
	if config.Limit <= 0 {
		config.Limit = 20
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		config:    config,
		windows:   make(map[string]*windowEntry),
		logger:    logger,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.sweepRoutine()

	return l
}

// Check records a request for key and reports whether it is allowed. The
// first request over the limit is rejected with a positive RetryAfter
// pointing at the next window.
func (l *Limiter) Check(key string) *Result {
	if !l.config.Enabled {
		return &Result{Allowed: true, Limit: l.config.Limit, Remaining: l.config.Limit}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.Sub(w.start) >= l.config.Window {
		w = &windowEntry{start: now}
		l.windows[key] = w
	}
	w.lastSeen = now

	resetAt := w.start.Add(l.config.Window)

	if w.count >= l.config.Limit {
		retry := resetAt.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return &Result{
			Allowed:    false,
			Limit:      l.config.Limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}
	}

	w.count++
	return &Result{
		Allowed:   true,
		Limit:     l.config.Limit,
		Remaining: l.config.Limit - w.count,
		ResetAt:   resetAt,
	}
}

// Reset clears the window for key, or every window when key is empty.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if key == "" {
		l.windows = make(map[string]*windowEntry)
		return
	}
	delete(l.windows, key)
}

// sweepRoutine periodically drops windows that have been idle past the
// window length, so one-off clients do not accumulate.
func (l *Limiter) sweepRoutine() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopSweep:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.lastSeen) > l.config.Window {
			delete(l.windows, key)
		}
	}

	if l.logger != nil {
		l.logger.Debug().Int("remaining_windows", len(l.windows)).Msg("Rate limiter sweep completed")
	}
}

// Close stops the sweeper goroutine.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stopSweep)
		l.wg.Wait()
	})
}
