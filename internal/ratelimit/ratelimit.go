// Package ratelimit is a fixed-window request counter.
//
// The counters live behind Store. CacheStore keeps them in process memory,
// which is only correct when a single instance serves all traffic; several
// replicas need a Store backed by a shared service.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// Store counts hits per key within a window that starts at the first hit
type Store interface {
	// Hit increments the counter of key and returns the new count and when
	// the current window ends.
	Hit(key string, window time.Duration) (count int, resetAt time.Time, err error)
}

type counter struct {
	hits int
}

// CacheStore is a Store on top of go-cache. Expired windows are evicted by
// the cache janitor.
type CacheStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewCacheStore creates a store whose janitor runs every cleanup interval
func NewCacheStore(cleanup time.Duration) *CacheStore {
	return &CacheStore{
		cache: cache.New(cache.NoExpiration, cleanup),
	}
}

// Hit implements Store
func (s *CacheStore) Hit(key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, expires, ok := s.cache.GetWithExpiration(key); ok {
		c := v.(*counter)
		c.hits++
		return c.hits, expires, nil
	}

	s.cache.Set(key, &counter{hits: 1}, window)
	return 1, time.Now().Add(window), nil
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter allows at most limit requests per key and window
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New creates a limiter
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records a request for key
func (l *Limiter) Allow(key string) (Decision, error) {
	count, resetAt, err := l.store.Hit(key, l.window)
	if err != nil {
		return Decision{}, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Middleware limits requests per client IP. A failing store lets the
// request through.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := l.Allow(c.ClientIP())
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retry := int(time.Until(decision.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
