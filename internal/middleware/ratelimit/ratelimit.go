// Package ratelimit implements a fixed-window per-client request limiter.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	window    = time.Minute
	idleAfter = 10 * time.Minute
)

// Decision is the outcome of counting one request against a client window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left until the client's window restarts.
	ResetIn time.Duration
}

// RetryAfterSeconds rounds ResetIn up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int {
	secs := int((d.ResetIn + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 60 requests per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

type bucket struct {
	opened time.Time
	seen   time.Time
	count  int
}

// Limiter counts requests per client over one-minute windows.
type Limiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and starts its sweep goroutine. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go l.sweepEvery(cfg.CleanupInterval)
	return l
}

// Take counts one request for client and reports whether it fits the window.
func (l *Limiter) Take(client string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[client]
	if !ok || now.Sub(b.opened) >= window {
		b = &bucket{opened: now}
		l.buckets[client] = b
	}
	b.count++
	b.seen = now

	remaining := l.limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   b.count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   b.opened.Add(window).Sub(now),
	}
}

// Allow is Take reduced to its verdict.
func (l *Limiter) Allow(client string) bool {
	return l.Take(client).Allowed
}

// ActiveClients returns the number of currently tracked clients
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) sweepEvery(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep forgets clients that have been quiet for idleAfter.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleAfter)
	for client, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, client)
		}
	}
}

// RejectFunc writes the response for a request that exceeded its window.
type RejectFunc func(w http.ResponseWriter, r *http.Request, d Decision)

// Middleware counts requests whose method is in methods; other methods pass
// through untouched. With no methods every request is counted. Counted
// responses carry X-RateLimit-Limit and X-RateLimit-Remaining; rejected ones
// also carry Retry-After.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, reject RejectFunc, methods ...string) func(http.Handler) http.Handler {
	counted := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		counted[m] = struct{}{}
	}
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, _ Decision) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(counted) > 0 {
				if _, ok := counted[r.Method]; !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			d := l.Take(clientOf(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
				reject(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
