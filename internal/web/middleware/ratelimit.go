package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/form1099/internal/config"
)

var errRateLimited = errors.New("rate limit exceeded")

// visitorTTL is how long an idle client's limiter is kept.
const visitorTTL = 10 * time.Minute

// RateLimit returns middleware applying a token bucket per client IP.
// It must run after TrustedRealIP so RemoteAddr holds the client address.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	every := rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	retryAfter := strconv.Itoa(max(1, 60/cfg.RequestsPerMinute))
	visitors := cache.New(visitorTTL, 2*visitorTTL)

	limiterFor := func(ip string) *rate.Limiter {
		if v, ok := visitors.Get(ip); ok {
			visitors.SetDefault(ip, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(every, cfg.Burst)
		if err := visitors.Add(ip, l, cache.DefaultExpiration); err != nil {
			// Another request created it first.
			if v, ok := visitors.Get(ip); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r.RemoteAddr)
			if !limiterFor(ip).Allow() {
				slog.Warn("rate limit exceeded", "path", r.URL.Path, "ip", ip)
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
