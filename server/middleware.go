package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/nutricalc-api/config"
	"github.com/giygas/nutricalc-api/handlers"
	"github.com/giygas/nutricalc-api/logging"
	"github.com/giygas/nutricalc-api/metrics"
	"github.com/juju/ratelimit"
)

// Token bucket settings: 3 tokens per second, max 1000 tokens
const (
	bucketRate     = 3
	bucketCapacity = 1000
)

// RealIPMiddleware keys requests on the client address. Behind nginx that is
// the first X-Forwarded-For entry, otherwise the peer host without its port.
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			client, _, _ := strings.Cut(xff, ",")
			r.RemoteAddr = strings.TrimSpace(client)
		} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			r.RemoteAddr = host
		}
		next.ServeHTTP(w, r)
	})
}

// isLocal reports whether addr, with or without a port, is a loopback address
func isLocal(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// BlockDirectAccessMiddleware only lets through requests that came via the
// reverse proxy or from the machine itself
func BlockDirectAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied := r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != ""
		if !proxied && !isLocal(r.RemoteAddr) {
			logging.Warn("Direct access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
			handlers.RespondWithError(w, http.StatusForbidden, "Direct access not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// declaredLength is the body size the client announced, if any
func declaredLength(r *http.Request) (int64, bool) {
	if r.ContentLength > 0 {
		return r.ContentLength, true
	}
	n, err := strconv.ParseInt(r.Header.Get("Content-Length"), 10, 64)
	return n, err == nil && n >= 0
}

// headerBytes approximates the header size as the sum of names and values
func headerBytes(h http.Header) int64 {
	var size int64
	for name, values := range h {
		size += int64(len(name))
		for _, v := range values {
			size += int64(len(v))
		}
	}
	return size
}

// RequestSizeMiddleware rejects oversized bodies and headers. Bodies without a
// declared length are capped while they are read.
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if length, ok := declaredLength(r); ok && length > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", length,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody))
				return
			}

			if size := headerBytes(r.Header); size > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", size,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		done:    make(chan struct{}),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// removeIdle drops clients whose bucket has refilled completely
func (rl *RateLimiter) removeIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

// StartCleanup removes idle clients every interval until Stop is called
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := rl.removeIdle(); removed > 0 {
					logging.Debug("Rate limiter buckets cleaned up", "removed", removed)
				}
			case <-rl.done:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Token costs per request. Exports render a whole document and cost the most.
var (
	pathCosts = map[string]int64{
		"/health":            5,
		"/metrics":           0, // scraped by Prometheus
		"/v1/formulas":       10,
		"/v1/history":        20,
		"/v1/history/export": 200,
	}
	prefixCosts = []struct {
		prefix string
		cost   int64
	}{
		{"/v1/formulas/", 5},
		{"/v1/calculations/", 10},
	}
)

const (
	clearHistoryCost = 50
	defaultCost      = 20
)

func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path
	if path == "/v1/history" && r.Method == http.MethodDelete {
		return clearHistoryCost
	}
	if cost, ok := pathCosts[path]; ok {
		return cost
	}
	for _, pc := range prefixCosts {
		if strings.HasPrefix(path, pc.prefix) {
			return pc.cost
		}
	}
	return defaultCost
}

// retryAfter is how long the bucket needs to refill the missing tokens,
// rounded up to whole seconds
func retryAfter(bucket *ratelimit.Bucket, cost int64) int64 {
	missing := cost - bucket.Available()
	if missing <= 0 {
		return 1
	}
	return (missing + bucketRate - 1) / bucketRate
}

// Handler implements rate limiting using token bucket. A rejected request
// takes no tokens.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(r.RemoteAddr)
		cost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		if _, ok := bucket.TakeMaxDuration(cost, 0); !ok {
			wait := retryAfter(bucket, cost)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
			w.Header().Set("Retry-After", strconv.FormatInt(wait, 10))
			logging.Warn("Rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path, "cost", cost)
			handlers.RespondWithError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Rate limit exceeded. Please retry in %d seconds.", wait))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
