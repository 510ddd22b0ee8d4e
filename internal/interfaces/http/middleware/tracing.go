// Package middleware provides HTTP middleware for the BVA backend.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Header-sourced span attributes are bounded and validated; headers are
// attacker-controlled and end up in the trace backend verbatim.
const (
	MaxRequestIDLength = 128
	MaxShopIDLength    = 64
)

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig configures the otelgin-based tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig enables tracing under the backend's service name.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "bva-backend",
		Enabled:     true,
	}
}

// Tracing returns the tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin so every request gets a server span
// named "METHOD route_pattern", then annotates it with request_id,
// shop_id, and user_id. Identity attributes known only after auth are
// added later by TracingAttributeInjector.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	otelMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		otelMiddleware(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateSpan(c, span)
		}
	}
}

// TracingAttributeInjector re-annotates the request span once the auth
// middleware has populated JWT claims. Place it after both Tracing and
// the JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateSpan(c, span)
		}
		c.Next()
	}
}

// SpanErrorMarker flips the request span to error status for 4xx/5xx
// responses. Place it after the Tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		span.SetStatus(codes.Error, statusDescription(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func statusDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusUnauthorized:
		return "Unauthorized"
	case status == http.StatusForbidden:
		return "Forbidden"
	case status == http.StatusNotFound:
		return "Not Found"
	default:
		return "Client Error"
	}
}

// annotateSpan attaches request and identity attributes to the span.
func annotateSpan(c *gin.Context, span trace.Span) {
	if requestID := spanRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if shopID := spanShopID(c); shopID != "" {
		span.SetAttributes(attribute.String("shop_id", shopID))
	}
	if userID, ok := c.Get(JWTUserIDKey); ok {
		if id, valid := userID.(string); valid && id != "" {
			span.SetAttributes(attribute.String("user_id", id))
		}
	}
}

// spanRequestID prefers the ID assigned by the RequestID middleware and
// falls back to the caller's header, truncated to the length cap.
func spanRequestID(c *gin.Context) string {
	if requestID, ok := c.Get("request_id"); ok {
		if id, valid := requestID.(string); valid && id != "" {
			return id
		}
	}

	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// spanShopID prefers the shop from JWT claims. The X-Shop-ID header is
// accepted only when it parses as a UUID, since it is unauthenticated.
func spanShopID(c *gin.Context) string {
	if shopID, ok := c.Get(JWTShopIDKey); ok {
		if id, valid := shopID.(string); valid && id != "" {
			return id
		}
	}

	headerShopID := c.GetHeader("X-Shop-ID")
	if headerShopID != "" && len(headerShopID) <= MaxShopIDLength && uuidRegex.MatchString(headerShopID) {
		return headerShopID
	}
	return ""
}
