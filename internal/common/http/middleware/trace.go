package middleware

import (
	"context"
	"strings"

	"matholymp/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader   = "X-Trace-Id"
	requestIDHeader = "X-Request-Id"

	traceIDContextKey   = "trace_id"
	requestIDContextKey = "request_id"

	maxCorrelationIDLen = 64
)

// TraceContext tags every request with a trace id and a request id, taken
// from the caller's headers when they look sane and generated otherwise.
// Both are echoed in the response.
// The acting user is attached later by AuthMiddleware, never from headers.
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := correlationID(c.GetHeader(traceIDHeader))
		requestID := correlationID(c.GetHeader(requestIDHeader))

		c.Set(traceIDContextKey, traceID)
		c.Set(requestIDContextKey, requestID)
		ctx := context.WithValue(c.Request.Context(), contextkey.TraceID, traceID)
		ctx = context.WithValue(ctx, contextkey.RequestID, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(traceIDHeader, traceID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// correlationID keeps a caller-supplied id only when it is short and made of
// header-safe characters.
func correlationID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxCorrelationIDLen {
		return uuid.NewString()
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ':':
		default:
			return uuid.NewString()
		}
	}
	return id
}
