package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/po-tati-x/potatix-sub004/internal/http/response"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/ratelimit"
)

// RateLimit gates a route group behind the sliding-window quota, keyed by
// caller IP under the given scope. Rejections carry the remaining-quota
// count and never reach the handler, so no model call is spent on them.
func RateLimit(log *logger.Logger, limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	mlog := log.With("middleware", "RateLimit", "scope", scope)
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), scope, c.ClientIP())
		if err != nil {
			// The quota store being down should not take the feature
			// down with it.
			mlog.Error("rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}
		if !decision.Allowed {
			mlog.Warn("rate limit exceeded", "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": response.APIError{
					Message: "too many requests",
					Code:    "rate_limited",
				},
				"remaining": decision.Remaining,
			})
			return
		}
		c.Next()
	}
}
