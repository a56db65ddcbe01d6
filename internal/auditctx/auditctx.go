// Package auditctx carries request provenance from the HTTP layer down to the
// audit writer without widening every service signature.
package auditctx

import "context"

// Origin describes where a request came from.
type Origin struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type originKey struct{}

// WithOrigin returns a derived context carrying origin.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, originKey{}, origin)
}

// FromContext returns the origin stored by WithOrigin.
func FromContext(ctx context.Context) (Origin, bool) {
	if ctx == nil {
		return Origin{}, false
	}
	origin, ok := ctx.Value(originKey{}).(Origin)
	return origin, ok
}
