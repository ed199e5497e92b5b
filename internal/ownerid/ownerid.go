// Package ownerid defines the opaque owner identity every artifact, FSM
// row and job attribute in this service is scoped to.
package ownerid

import "context"

// ID is an opaque owner identity, resolved from a verified credential by
// the auth gate. Two different credential shapes (a user JWT, a bot
// composite token) may both resolve to the same ID.
type ID string

type contextKey struct{}

// NewContext returns a context carrying owner id.
func NewContext(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the owner id stashed by NewContext.
func FromContext(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(contextKey{}).(ID)
	return id, ok
}
