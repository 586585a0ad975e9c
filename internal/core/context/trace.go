package appctx

import (
	"context"
)

// Trace carries correlation identifiers for a request.
type Trace struct {
	// TraceID is the distributed trace identifier
	TraceID string

	// RequestID is the per-request identifier (X-Request-Id)
	RequestID string
}

type traceKey struct{}

// WithTrace stores trace info in context.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace info from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}
