package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "coldstore/internal/core/context"
)

const (
	HeaderOperator = "X-Operator"
	HeaderDevice   = "X-Device"
)

// Operator puts the data-entry operator named by the request headers into the
// context. It identifies, it does not authorize.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(HeaderOperator))
		device := strings.TrimSpace(c.GetHeader(HeaderDevice))
		if name != "" || device != "" {
			op := &appctx.Operator{Name: name, Device: device}
			c.Request = c.Request.WithContext(appctx.WithOperator(c.Request.Context(), op))
			c.Set("operator", op.Name)
		}
		c.Next()
	}
}
