package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Skipper exempts a request from rate limiting.
type Skipper func(c echo.Context) bool

// ReadOnly exempts GET requests. Board clients poll the timer view every
// second and would exhaust a per-minute budget on their own.
func ReadOnly(c echo.Context) bool {
	return c.Request().Method == http.MethodGet
}

// RateLimiter allows limit requests per client IP in each fixed window.
func RateLimiter(limit int, window time.Duration, skippers ...Skipper) echo.MiddlewareFunc {
	type bucket struct {
		count int
		start time.Time
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastPrune time.Time
	)

	prune := func(now time.Time) {
		if now.Sub(lastPrune) < window {
			return
		}
		for key, b := range buckets {
			if now.Sub(b.start) > window {
				delete(buckets, key)
			}
		}
		lastPrune = now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, skip := range skippers {
				if skip(c) {
					return next(c)
				}
			}

			now := time.Now()
			key := c.RealIP()

			mu.Lock()
			prune(now)
			b, ok := buckets[key]
			if !ok || now.Sub(b.start) > window {
				b = &bucket{start: now}
				buckets[key] = b
			}

			if b.count >= limit {
				retry := window - now.Sub(b.start)
				mu.Unlock()
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			b.count++
			mu.Unlock()

			return next(c)
		}
	}
}
