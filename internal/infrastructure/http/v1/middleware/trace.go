package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "coldstore/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace puts the request trace into the context and echoes it back.
// A device retrying an entry sends the same X-Trace-ID each time.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := appctx.Trace{
			RequestID: c.GetHeader(HeaderRequestID),
			TraceID:   c.GetHeader(HeaderTraceID),
		}
		if t.RequestID == "" {
			t.RequestID = uuid.NewString()
		}
		if t.TraceID == "" {
			t.TraceID = t.RequestID
		}

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), t))
		c.Set("request_id", t.RequestID)

		c.Header(HeaderRequestID, t.RequestID)
		c.Header(HeaderTraceID, t.TraceID)

		c.Next()
	}
}
