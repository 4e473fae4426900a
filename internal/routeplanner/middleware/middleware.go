package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware ensures every request has a stable request ID.
// - Reads X-Request-Id header if present
// - Otherwise generates a new one
// - Stores it in context as "request_id"
// - Echoes it back in response header X-Request-Id
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if strings.TrimSpace(rid) == "" {
			rid = uuid.New().String()
		}

		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf(
			"[req] id=%s method=%s path=%s status=%d latency=%s",
			rid,
			c.Request.Method,
			c.Request.URL.Path,
			status,
			latency,
		)
	}
}

// AllowedHostsMiddleware rejects requests whose Host header is not in the
// allow-list. A list containing "*" accepts any host.
func AllowedHostsMiddleware(allowed []string) gin.HandlerFunc {
	hosts := make(map[string]bool, len(allowed))
	wildcard := len(allowed) == 0
	for _, h := range allowed {
		if h == "*" {
			wildcard = true
			continue
		}
		hosts[strings.ToLower(h)] = true
	}

	return func(c *gin.Context) {
		if wildcard {
			c.Next()
			return
		}

		host := strings.ToLower(c.Request.Host)
		// Strip a port if one is present.
		if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
			host = host[:i]
		}

		if !hosts[host] {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"ok":    false,
				"error": "invalid host header",
			})
			return
		}

		c.Next()
	}
}
