// Package ratelimit throttles requests per client with a token bucket.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerSecond is the sustained refill rate of each client's bucket.
	RequestsPerSecond float64
	Burst             int
	// Clients idle for longer than IdleTTL are forgotten.
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		Burst:             20,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      Config

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewLimiter creates a limiter and starts its cleanup goroutine; call Stop
// to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst < 1 {
		cfg.Burst = def.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		visitors:    make(map[string]*visitor),
		cfg:         cfg,
		stopCleanup: make(chan struct{}),
	}
	go l.startCleanup()
	return l
}

func (l *Limiter) visitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow reports whether key may make a request now.
func (l *Limiter) Allow(key string) bool {
	return l.visitor(key).Allow()
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanupStaleEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.cfg.IdleTTL)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// retryAfter is the whole number of seconds until one token is available.
func (l *Limiter) retryAfter() string {
	secs := int(1/l.cfg.RequestsPerSecond + 0.999)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Middleware rejects requests over the limit with onLimit, or a plain 429
// when onLimit is nil.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractKey(r)) {
				w.Header().Set("Retry-After", l.retryAfter())
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
