package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/benvon/todolist/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "todolist:ratelimit"

// NewRateLimiter builds a limiter for rate, a formatted value such as "100-M". Counters
// live in Redis when a client is given so every replica shares them, and in process
// memory otherwise.
func NewRateLimiter(rate string, redisClient *redis.Client) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	return limiter.New(store, parsed), nil
}

// RateLimit limits requests per client IP. The health endpoint is exempt. Store
// errors let the request through so a Redis outage does not take the API down.
func RateLimit(l *limiter.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			key := request.ClientIP(r)
			lctx, err := l.Get(r.Context(), key)
			if err != nil {
				logger.Warn("rate_limit_store_error", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Warn("rate_limit_exceeded",
					zap.String("client_ip", key),
					zap.String("path", r.URL.Path),
				)
				respondErrorJSON(w, r, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "Rate limit exceeded, retry later", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
