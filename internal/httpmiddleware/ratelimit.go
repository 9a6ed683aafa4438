package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/auth"
)

// KeyFunc derives the bucket key for a request.
type KeyFunc func(*gin.Context) string

// ByClientIP buckets requests per source IP; the wide limit for the API
// as a whole.
func ByClientIP() KeyFunc {
	return func(c *gin.Context) string {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		return "ip:" + ip
	}
}

// ByStudent buckets requests per authenticated user, so one student
// hammering the scan endpoint cannot starve classmates behind the same
// NAT. Unauthenticated requests fall back to the source IP.
func ByStudent() KeyFunc {
	byIP := ByClientIP()
	return func(c *gin.Context) string {
		if claims, ok := auth.ClaimsFrom(c); ok && claims.UserID != "" {
			return "student:" + claims.UserID
		}
		return byIP(c)
	}
}

// Limiter applies in-memory token buckets per key. The scan endpoint runs a
// tight per-student profile sized to the token rotation cadence; everything
// else shares a wide per-IP profile.
type Limiter struct {
	capacity int
	rate     int
	keyFor   KeyFunc
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewLimiter creates a limiter with burst capacity tokens refilled at
// perMinute, bucketed by keyFor.
func NewLimiter(capacity, perMinute int, keyFor KeyFunc) *Limiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &Limiter{
		capacity: capacity,
		rate:     perMinute,
		keyFor:   keyFor,
		state:    make(map[string]*bucket),
	}
}

// GinMiddleware returns a gin handler enforcing the limit.
func (l *Limiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(l.keyFor(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
