package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit returns a per-client-IP rate limiting middleware. The rate uses
// the limiter format, e.g. "100-M" for 100 requests per minute.
func RateLimit(formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 100}
	}
	store := memory.NewStore()
	return limitergin.NewMiddleware(limiter.New(store, rate))
}
