// Package session carries the ambient storefront identity as an explicit
// value. Every cart operation takes an Identity instead of reading global
// auth state, so tests can run multiple simulated shoppers side by side.
package session

import "context"

// Identity is the (user, session key) pair the storefront resolved for the
// current shopper. The zero value is an unauthenticated visitor whose cart
// is local-only: no remote call may be made on their behalf.
type Identity struct {
	UserID     string
	SessionKey string

	// GuestToken identifies an unauthenticated visitor's local cart so the
	// proxy can keep a stable engine for them across requests.
	GuestToken string
}

// Authenticated reports whether remote cart operations are allowed.
// Both the user id and the session key must be present.
func (id Identity) Authenticated() bool {
	return id.UserID != "" && id.SessionKey != ""
}

// EngineKey returns the key the engine registry files this identity under.
func (id Identity) EngineKey() string {
	if id.Authenticated() {
		return "user:" + id.UserID
	}
	if id.GuestToken != "" {
		return "guest:" + id.GuestToken
	}
	return ""
}

// contextKey is the type for context values to avoid collisions
type contextKey string

const identityContextKey contextKey = "storefront.session"

// WithIdentity returns a context carrying the parsed identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext extracts the identity set by the session middleware.
// Returns the zero Identity when none was attached.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityContextKey).(Identity); ok {
		return id
	}
	return Identity{}
}
