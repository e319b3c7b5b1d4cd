package http

import (
	"net/http"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// CORSMiddleware handles CORS for browser clients. Credentials are only
// allowed for origins matched by a specific pattern, never by a lone "*".
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if pattern, ok := matchOrigin(origin, allowedOrigins); ok {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if pattern != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			h.Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin reports whether any pattern in allowedOrigins matches origin
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	_, ok := matchOrigin(origin, allowedOrigins)
	return ok
}

// matchOrigin returns the first pattern matching origin. Patterns are globs
// such as "http://localhost:*" or "https://*.example.com"; a lone "*" matches
// any origin. Specific patterns win over "*".
func matchOrigin(origin string, allowedOrigins []string) (string, bool) {
	if origin == "" {
		return "", false
	}
	wildcard := false
	for _, pattern := range allowedOrigins {
		if pattern == "*" {
			wildcard = true
			continue
		}
		if pattern == origin {
			return pattern, true
		}
		if ok, _ := path.Match(pattern, origin); ok {
			return pattern, true
		}
	}
	if wildcard {
		return "*", true
	}
	return "", false
}

// LoggerMiddleware writes one access log line per request
func LoggerMiddleware(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// RecoveryMiddleware recovers from panics and answers 500
func RecoveryMiddleware(logger *logrus.Entry) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// ipLimiters hands out one token bucket per client IP
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastGC   time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(perMinute int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,
		lastGC:   time.Now(),
	}
}

func (l *ipLimiters) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Forget clients idle longer than l.idle
	if now.Sub(l.lastGC) > l.idle {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > l.idle {
				delete(l.limiters, key)
			}
		}
		l.lastGC = now
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware allows perMinute requests per client IP and answers
// 429 beyond that. perMinute <= 0 disables limiting.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := newIPLimiters(perMinute)
	retryAfter := strconv.Itoa(int((time.Minute / time.Duration(perMinute)).Seconds()) + 1)

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
