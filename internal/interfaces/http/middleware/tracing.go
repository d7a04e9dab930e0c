package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps client supplied request ids.
const MaxRequestIDLength = 128

// Tracing wraps otelgin; spans are named after the route template.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// TraceAttributes copies the request id and caller identity onto the
// active span and marks 5xx answers as failed. It runs after Authenticate.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if rid := GetRequestID(c); rid != "" {
			span.SetAttributes(attribute.String("request_id", rid))
		}
		if p, ok := GetPrincipal(c); ok {
			span.SetAttributes(
				attribute.String("company_id", p.CompanyID),
				attribute.String("user_id", p.UserID),
				attribute.String("role", string(p.Role)),
			)
		}
		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
