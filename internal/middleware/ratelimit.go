// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/olegiv/carta/internal/util"
)

// DefaultMaxLimiterKeys bounds the number of tracked clients before the
// limiter table is reset.
const DefaultMaxLimiterKeys = 10000

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

func (lc *limiterCache[K]) size() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// ClientRateLimiter limits requests per client IP.
type ClientRateLimiter struct {
	cache   *limiterCache[string]
	maxKeys int
	reject  http.Handler
}

// NewClientRateLimiter creates a limiter allowing rps requests per second
// with the given burst per client. Rejected requests are served by reject;
// nil means a 429 JSON error.
func NewClientRateLimiter(rps float64, burst int, reject http.Handler) *ClientRateLimiter {
	if reject == nil {
		reject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"error":"rate limit exceeded"}`))
		})
	}
	return &ClientRateLimiter{
		cache:   newLimiterCache[string](rps, burst),
		maxKeys: DefaultMaxLimiterKeys,
		reject:  reject,
	}
}

// Allow reports whether a request from remoteAddr may proceed.
func (l *ClientRateLimiter) Allow(remoteAddr string) bool {
	key := remoteAddr
	if ip := util.ClientIP(remoteAddr); ip != nil {
		key = ip.String()
	}
	l.cache.clearIfExceeds(l.maxKeys)
	return l.cache.get(key).Allow()
}

// Handler returns the limiting middleware.
func (l *ClientRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.RemoteAddr) {
			l.reject.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
