package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsMiddleware lets the patient and doctor frontends call the API.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		origin := resolveOrigin(c.GetHeader("Origin"), allowed)
		headers.Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			headers.Add("Vary", "Origin")
		}
		headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveOrigin echoes an allowed request origin. With no allow-list every
// origin is accepted.
func resolveOrigin(requestOrigin string, allowed []string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, candidate := range allowed {
		if candidate == "*" {
			return "*"
		}
		if requestOrigin != "" && strings.EqualFold(candidate, requestOrigin) {
			return requestOrigin
		}
	}
	return allowed[0]
}
