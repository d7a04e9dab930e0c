package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

// NewLimiter builds an in-memory limiter from a rate such as "600-M".
func NewLimiter(rate string) (*limiter.Limiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), r), nil
}

// RateLimit limits requests per caller. Authenticated callers are keyed
// by company and user, everyone else by client IP, so it must run after
// Authenticate to see the principal.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p, ok := GetPrincipal(c); ok && p.UserID != "" {
			key = p.CompanyID + ":" + p.UserID
		}

		lc, err := l.Get(c.Request.Context(), key)
		if err != nil {
			// fail open
			logger.L(c.Request.Context()).Error("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		if lc.Reached {
			logger.L(c.Request.Context()).Warn("rate limit exceeded", zap.String("key", key), zap.Int64("limit", lc.Limit))
			abort(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
