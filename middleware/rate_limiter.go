package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Per-client budget: steady contribution/polling traffic fits well
// under 10 rps; the burst absorbs an app cold-start fetching profile,
// challenges, leaderboard and notifications at once.
const (
	clientRatePerSecond = 10
	clientBurst         = 40
	clientIdleEviction  = 3 * time.Minute
	sweepInterval       = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

// RateLimitMiddleware applies a per-client token bucket keyed by IP.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !getLimiter(clientIP(r)).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP prefers X-Forwarded-For since the API runs behind a proxy
// in every deployed environment.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}

func getLimiter(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(clientRatePerSecond, clientBurst)
		visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// CleanupVisitors evicts idle client buckets. Run once, from main.
func CleanupVisitors() {
	for {
		time.Sleep(sweepInterval)
		mu.Lock()
		for ip, v := range visitors {
			if time.Since(v.lastSeen) > clientIdleEviction {
				delete(visitors, ip)
			}
		}
		mu.Unlock()
	}
}
