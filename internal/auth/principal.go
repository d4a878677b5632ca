// Package auth carries the authenticated caller identity through request
// contexts. There is no process-wide security state: whoever needs the
// principal receives it via context.Context.
package auth

import "context"

// Principal identifies the authenticated caller of a request.
type Principal struct {
	Subject string
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the principal placed by NewContext, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
