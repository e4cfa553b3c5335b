package services

import "context"

type contextKey string

const (
	gidKey       contextKey = "gid"
	methodKey    contextKey = "method"
	requestIDKey contextKey = "request_id"
)

// WithGID annotates context with the task identifier a call operates on.
func WithGID(ctx context.Context, gid uint64) context.Context {
	return context.WithValue(ctx, gidKey, gid)
}

// GIDFromContext extracts the task identifier if present.
func GIDFromContext(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(gidKey).(uint64)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// WithMethod annotates context with the remote method name being executed.
func WithMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, methodKey, method)
}

// MethodFromContext returns the method name if present.
func MethodFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(methodKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
