package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/config"
	"github.com/gipoly/gipoly-engine/pkg/localization"
)

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	// Allow counts one request for key and reports whether it fits in the
	// current window. When it does not, retryAfter is the time left in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// RedisRateLimitStore keeps counters in Redis so all instances share them.
type RedisRateLimitStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRateLimitStore creates a store that namespaces its keys with prefix.
func NewRedisRateLimitStore(client *redis.Client, prefix string) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: prefix, now: time.Now}
}

// Allow implements RateLimitStore. The counter key embeds the window index,
// so each window starts from zero and expires with it.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := s.now()
	index := now.UnixNano() / int64(window)
	windowKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, index)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.PExpire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit counter: %w", err)
	}

	if incr.Val() > int64(limit) {
		reset := time.Unix(0, (index+1)*int64(window))
		return false, reset.Sub(now), nil
	}
	return true, 0, nil
}

// MemoryRateLimitStore is the single-instance fallback used when Redis is not
// configured. Expired windows are removed on access and by a periodic sweep.
type MemoryRateLimitStore struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	now       func() time.Time
	lastSweep time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// sweepInterval bounds how often the whole map is scanned for expired windows.
const sweepInterval = time.Minute

// NewMemoryRateLimitStore creates an empty in-process store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{windows: make(map[string]*rateWindow), now: time.Now}
}

// Allow implements RateLimitStore.
func (s *MemoryRateLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}

	w.count++
	if w.count > limit {
		return false, w.resetAt.Sub(now), nil
	}
	return true, 0, nil
}

// Len returns the number of live windows.
func (s *MemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryRateLimitStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

// RateLimitObserver is told about rejected requests. Used for metrics.
type RateLimitObserver interface {
	ObserveRateLimited(route string)
}

// RateLimit returns middleware that limits each caller to cfg.Requests per
// cfg.Window on a route. Callers are identified by their JWT subject, or by
// client IP before authentication. Store failures let the request through.
func RateLimit(store RateLimitStore, cfg config.RateLimitConfig, observer RateLimitObserver, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if !cfg.Enabled || store == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
			return next
		}

		return func(w http.ResponseWriter, r *http.Request) {
			caller := auth.GetUserIDFromContext(r.Context())
			if caller == "" {
				caller = "ip:" + ClientIP(r)
			}
			key := r.Pattern + "|" + caller

			allowed, retryAfter, err := store.Allow(r.Context(), key, cfg.Requests, cfg.Window)
			if err != nil {
				logger.Warn("Rate limit store unavailable, allowing request",
					zap.String("route", r.Pattern),
					zap.Error(err))
				next(w, r)
				return
			}
			if !allowed {
				if observer != nil {
					observer.ObserveRateLimited(r.Pattern)
				}
				logger.Info("Rate limit exceeded",
					zap.String("route", r.Pattern),
					zap.String("caller", caller),
					zap.Duration("retry_after", retryAfter))

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":  "rate_limit_exceeded",
					"detail": localization.FromRequest(r, "rate_limit_exceeded"),
				})
				return
			}

			next(w, r)
		}
	}
}
