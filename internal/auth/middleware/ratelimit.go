package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const bucketIdle = 5 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimit is a token bucket per client IP. Idle buckets are dropped on
// access once they have been unused for five minutes.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		buckets   = map[string]*bucket{}
		lastSweep = time.Now()
		limit     = rate.Limit(float64(perMinute) / 60)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.seen) > bucketIdle {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(limit, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many login attempts, try again later"})
			return
		}
		c.Next()
	}
}
