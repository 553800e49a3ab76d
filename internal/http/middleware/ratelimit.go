package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

// RateLimiter is a fixed-window counter in Redis, keyed by user when
// authenticated and by client IP otherwise.
type RateLimiter struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRateLimiter(rdb *goredis.Client, log *logger.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, log: log.With("middleware", "RateLimiter")}
}

// Limit allows limit requests per window for the named bucket. A nil
// limiter, a nil client or a non-positive limit disables it; Redis errors
// let the request through.
func (rl *RateLimiter) Limit(bucket string, limit int, window time.Duration) gin.HandlerFunc {
	if rl == nil || rl.rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if id := ctxutil.UserID(c.Request.Context()); id != uuid.Nil {
			subject = id.String()
		}
		key := fmt.Sprintf("rate_limit:%s:%s", bucket, subject)

		ctx := c.Request.Context()
		count, err := rl.hit(ctx, key, window)
		if err != nil {
			rl.log.Warn("rate limit check failed", "bucket", bucket, "error", err)
			c.Next()
			return
		}
		if count > int64(limit) {
			ttl, _ := rl.rdb.TTL(ctx, key).Result()
			if ttl <= 0 {
				ttl = window
			}
			c.Header("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			response.AbortAPIError(c, rl.log, apierr.New(http.StatusTooManyRequests, "rate_limited", errors.New("too many requests, try again later")))
			return
		}
		c.Next()
	}
}

// hit counts one request and makes sure the window key expires. EXPIRE NX
// runs on every hit, so a key that lost its TTL gets one back instead of
// blocking its subject forever.
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *goredis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val(), nil
}
