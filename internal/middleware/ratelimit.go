package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLimiterTTL is how long an idle client's bucket is kept.
const DefaultLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter limits requests per client IP using a token bucket per IP.
// Buckets idle for longer than TTL are evicted.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*limiterEntry
	limit rate.Limit
	burst int

	TTL       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter. limit is events per second; for N per minute
// use rate.Limit(float64(N)/60.0). burst is max tokens per bucket.
func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*limiterEntry),
		limit: limit,
		burst: burst,
		TTL:   DefaultLimiterTTL,
		now:   time.Now,
	}
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.TTL {
		for k, e := range l.ips {
			if now.Sub(e.lastSeen) > l.TTL {
				delete(l.ips, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.ips[ip]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.ips[ip] = e
	}
	e.lastSeen = now
	return e.lim
}

// size reports the number of tracked clients.
func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// clientIP returns the host part of RemoteAddr. Forwarded headers are not read here; mount
// chi's middleware.RealIP in front when the API runs behind a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware returns a chi-compatible middleware that returns 429 when the client IP exceeds the rate.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.getLimiter(clientIP(r)).Allow() {
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminRateLimiter returns a limiter for admin endpoints: 6 requests per minute per IP, burst 2.
func AdminRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(6.0/60.0), 2)
}
