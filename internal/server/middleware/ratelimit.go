package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	redis "github.com/redis/go-redis/v9"
)

// MsgTooManyRequests is returned with every 429 response.
const MsgTooManyRequests = "Too many requests, please try again later."

// RateLimit returns an HTTP middleware that limits requests per client IP to
// limit per window, counted in process memory with httprate's sliding window.
func RateLimit(limit int, window time.Duration, metrics *Metrics) func(http.Handler) http.Handler {
	if limit <= 0 {
		return passthrough
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitHandler(metrics)),
	)
}

func limitHandler(metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimited(r)
		writeJSONError(w, http.StatusTooManyRequests, MsgTooManyRequests)
	}
}

func passthrough(next http.Handler) http.Handler { return next }

// RedisLimiter counts requests in fixed windows stored in Redis so that
// limits hold across several API instances. Redis errors fail open.
type RedisLimiter struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *Metrics
	prefix  string
	timeout time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisLimiter builds a limiter on an existing client.
func NewRedisLimiter(client *redis.Client, logger *slog.Logger, metrics *Metrics) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		logger:  logger,
		metrics: metrics,
		prefix:  "carecycle:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Limit returns a middleware allowing limit requests per client IP per window.
// name separates the counters of different routes.
func (l *RedisLimiter) Limit(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return passthrough
	}
	if window <= 0 {
		window = time.Minute
	}
	deny := limitHandler(l.metrics)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := httprate.KeyByIP(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			count, ttl, err := l.incr(r.Context(), l.prefix+name+":"+ip, window)
			if err != nil {
				l.logger.Error("redis rate limiter error", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if int(count) > limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// incr bumps the counter for key and returns the count and the time left in
// the window. A counter without a TTL gets one, whether it was just created
// or an earlier EXPIRE was lost.
func (l *RedisLimiter) incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left <= 0 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return count.Val(), left, nil
}
