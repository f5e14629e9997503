package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const spanContextKey = "otel-span"

// Tracing creates middleware that starts a server span per request and
// propagates incoming W3C trace context
func Tracing(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)
	propagator := otel.GetTextMapPropagator()
	skip := map[string]bool{
		"/health":  true,
		"/ready":   true,
		"/metrics": true,
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(c.Request.Method),
				semconv.HTTPRouteKey.String(path),
				attribute.String("http.client_ip", c.ClientIP()),
				attribute.String("service.name", serviceName),
			),
		)
		defer span.End()

		c.Set(spanContextKey, span)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}

// AddSpanAttributes attaches attributes to the span of the current request
func AddSpanAttributes(c *gin.Context, attrs map[string]interface{}) {
	val, exists := c.Get(spanContextKey)
	if !exists {
		return
	}
	span, ok := val.(trace.Span)
	if !ok {
		return
	}

	for k, v := range attrs {
		switch value := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, value))
		case int:
			span.SetAttributes(attribute.Int(k, value))
		case int64:
			span.SetAttributes(attribute.Int64(k, value))
		case float64:
			span.SetAttributes(attribute.Float64(k, value))
		case bool:
			span.SetAttributes(attribute.Bool(k, value))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", value)))
		}
	}
}
