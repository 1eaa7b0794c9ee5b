package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client address. Buckets idle for
// longer than the TTL are evicted.
type RateLimiter struct {
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	log     zerolog.Logger
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given
// burst for each client
func NewRateLimiter(perSecond float64, burst int, ttl time.Duration, log zerolog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: cache.New(ttl, 2*ttl),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     ttl,
		log:     log,
	}
}

// Allow reports whether the client may make a request now
func (l *RateLimiter) Allow(client string) bool {
	return l.bucket(client).Allow()
}

// Clients returns the number of tracked clients
func (l *RateLimiter) Clients() int {
	return l.buckets.ItemCount()
}

func (l *RateLimiter) bucket(client string) *rate.Limiter {
	if v, ok := l.buckets.Get(client); ok {
		lim := v.(*rate.Limiter)
		// touching the entry extends its lifetime
		l.buckets.Set(client, lim, l.ttl)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if err := l.buckets.Add(client, lim, l.ttl); err != nil {
		// another request created it first
		if v, ok := l.buckets.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientAddr(r)
		if !l.Allow(client) {
			l.log.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client", client).
				Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientAddr returns the first X-Forwarded-For hop, or the remote host
func ClientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
