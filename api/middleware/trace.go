package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OldStager01/dpf-rul/internal/logger"
)

const (
	TraceIDHeader = "X-Trace-ID"
	TraceIDKey    = "trace_id"
)

// Inbound trace ids are echoed into logs and events, so only short
// token-like values are accepted.
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// TraceID adopts the caller's X-Trace-ID when it is well formed and
// otherwise assigns a fresh uuid. The id is set on the response, the gin
// context and the request context.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if !traceIDPattern.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(TraceIDKey, id)
		c.Writer.Header().Set(TraceIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), id))
		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
