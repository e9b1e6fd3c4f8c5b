package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/internal/logging"
)

// requestIDKey is the key used to store request ID in context
type requestIDKey struct{}

const RequestIDHeader = "X-Request-Id"

// RequestID ensures every request has a stable request ID.
//   - Reads X-Request-Id header if present, otherwise generates a uuid
//   - Stores it in the gin context and the request context
//   - Attaches a logger entry carrying request_id for logging.FromContext
//   - Echoes it back in the response header
//   - Logs method, path, status and latency once the request is done
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}

		entry := log.WithField("request_id", rid)

		c.Set("request_id", rid)
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, rid)
		ctx = logging.WithLogger(ctx, entry)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(RequestIDHeader, rid)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		}
		switch {
		case status >= 500:
			entry.WithFields(fields).Error("request")
		case status >= 400:
			entry.WithFields(fields).Warn("request")
		default:
			entry.WithFields(fields).Info("request")
		}
	}
}

// GetRequestID extracts the request ID from a standard context
func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}
