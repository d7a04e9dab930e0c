package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	companyIDKey
	userIDKey
)

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the attached logger or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and returns a context whose logger carries it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithIdentity records who is acting on behalf of the request.
func WithIdentity(ctx context.Context, companyID, userID string) context.Context {
	if companyID != "" {
		ctx = context.WithValue(ctx, companyIDKey, companyID)
	}
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	return ctx
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// L returns the context logger enriched with trace, company and user fields.
//
//	logger.L(ctx).Info("screen refreshed", zap.String("screen", name))
func L(ctx context.Context) *zap.Logger {
	return enrich(ctx, FromContext(ctx))
}

// LOr is L for components holding their own logger: the context logger
// wins when present, fallback is used otherwise.
func LOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return enrich(ctx, l)
	}
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return enrich(ctx, fallback)
}

func enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(zap.String("trace_id", sc.TraceID().String()), zap.String("span_id", sc.SpanID().String()))
	}
	if v := stringValue(ctx, companyIDKey); v != "" {
		l = l.With(zap.String("company_id", v))
	}
	if v := stringValue(ctx, userIDKey); v != "" {
		l = l.With(zap.String("user_id", v))
	}
	return l
}
