// Package context carries request-scoped values: the request trace and the
// operator entering data.
package context

import "context"

// Trace identifies one request. RequestID is echoed to the client and stored
// on audit rows. TraceID groups the retries of one mobile entry and defaults
// to the request ID.
type Trace struct {
	RequestID string
	TraceID   string
}

type traceKey struct{}

// WithTrace adds t to ctx.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the request trace, if any.
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// RequestID returns the request ID or "".
func RequestID(ctx context.Context) string {
	t, _ := TraceFrom(ctx)
	return t.RequestID
}
