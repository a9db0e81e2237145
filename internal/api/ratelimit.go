package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// rateRefillPerSecond is the steady-state request rate per client IP.
	// Generation and edit calls are slow, so one request per second is
	// generous for a single child's session.
	rateRefillPerSecond = 1.0

	// defaultRateBurst is the bucket size when the server config leaves
	// rate_burst unset.
	defaultRateBurst = 60

	rateLimiterCleanupInterval = 5 * time.Minute
	rateLimiterStaleThreshold  = 10 * time.Minute
)

// rateLimiter is a per-IP token bucket over golang.org/x/time/rate.
// Stale visitors are swept inline during allow calls, so the limiter
// needs no background goroutine of its own.
type rateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	burst       int
	lastCleanup time.Time
}

// visitor holds one IP's bucket and last-seen time.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a limiter with the given bucket size per IP.
// A non-positive burst selects defaultRateBurst.
func newRateLimiter(burst int) *rateLimiter {
	if burst <= 0 {
		burst = defaultRateBurst
	}
	return &rateLimiter{
		visitors:    make(map[string]*visitor),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

// allow reports whether a request from ip may proceed, consuming one
// token when it does.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.cleanupStale(now)

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rateRefillPerSecond), rl.burst)
		rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: now}
		limiter.Allow()
		return true
	}

	v.lastSeen = now
	return v.limiter.Allow()
}

// cleanupStale drops visitors idle past the stale threshold. Called with
// the mutex held, at most once per cleanup interval.
func (rl *rateLimiter) cleanupStale(now time.Time) {
	if now.Sub(rl.lastCleanup) <= rateLimiterCleanupInterval {
		return
	}
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rateLimiterStaleThreshold {
			delete(rl.visitors, ip)
		}
	}
	rl.lastCleanup = now
}

// rateLimitMiddleware rejects over-limit requests with 429 and a
// Retry-After hint matching the refill rate.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
//
// When trustProxy is true, checks X-Real-IP first, then X-Forwarded-For
// (first IP). Header values are validated with net.ParseIP so non-IP
// strings never become rate limiter keys. When trustProxy is false, only
// RemoteAddr is used.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
