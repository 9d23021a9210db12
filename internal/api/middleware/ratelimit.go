package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"Fingerpost/internal/api/handlers"
	"Fingerpost/internal/metrics"
)

// RateLimiter is a fixed-window, per-client in-memory rate limiter
type RateLimiter struct {
	clients    map[string]*clientLimit
	stop       chan struct{}
	now        func() time.Time
	requests   int
	window     time.Duration
	trustProxy bool
	mu         sync.Mutex
	stopOnce   sync.Once
}

type clientLimit struct {
	resetTime time.Time
	count     int
}

// NewRateLimiter creates a new rate limiter
// requests: maximum number of requests allowed per window
// window: time window duration (e.g., 1 minute)
// trustProxy: identify clients by X-Forwarded-For / X-Real-IP
func NewRateLimiter(requests int, window time.Duration, trustProxy bool) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*clientLimit),
		stop:       make(chan struct{}),
		now:        func() time.Time { return time.Now().UTC() },
		requests:   requests,
		window:     window,
		trustProxy: trustProxy,
	}

	go rl.cleanup()

	return rl
}

// Stop ends the background cleanup. The limiter keeps working afterwards.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware returns a rate limiting middleware. route labels rejections
// in metrics.
func (rl *RateLimiter) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, retryAfter := rl.allow(rl.clientIP(r)); !ok {
				metrics.ObserveRateLimited(route)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
				handlers.WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow checks if a client is allowed to make a request. When it is not,
// the second result is the time left in the current window.
func (rl *RateLimiter) allow(clientID string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	client, exists := rl.clients[clientID]
	if !exists || now.After(client.resetTime) {
		rl.clients[clientID] = &clientLimit{
			count:     1,
			resetTime: now.Add(rl.window),
		}
		return true, 0
	}

	if client.count < rl.requests {
		client.count++
		return true, 0
	}

	retryAfter := client.resetTime.Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return false, retryAfter
}

// cleanup removes expired client entries periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for clientID, client := range rl.clients {
		if now.After(client.resetTime) {
			delete(rl.clients, clientID)
		}
	}
}

// clientIP extracts the client IP from the request. Forwarding headers are
// only read behind a trusted proxy; the first X-Forwarded-For entry is the
// original client.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
