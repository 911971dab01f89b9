// Package maintenance implements read-only mode. While enabled, reads keep
// working and writes are refused with 503 so an operator can take backups or
// migrate the database without racing the ledger.
package maintenance

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const Message = "Service is in read-only maintenance mode"

// HeaderReadOnly is set on every response while read-only mode is active.
const HeaderReadOnly = "X-Read-Only"

type Middleware struct {
	readOnly bool
}

func NewMiddleware(readOnly bool) *Middleware {
	return &Middleware{readOnly: readOnly}
}

func (m *Middleware) IsReadOnly() bool {
	return m.readOnly
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.readOnly {
			c.Next()
			return
		}

		c.Header(HeaderReadOnly, "true")

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Header("Retry-After", "300")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":    Message,
			"readOnly": true,
		})
	}
}

// Sessions must still be obtainable and revocable while writes are blocked.
func isAllowedPath(path string) bool {
	return strings.HasPrefix(path, "/api/auth/")
}
