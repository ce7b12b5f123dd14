// Package identity exposes the authenticated actor for the current request
// and a subscription for sign-in/sign-out transitions.
package identity

import (
	"context"
	"strings"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
)

// Identity identifies an authenticated actor. It lives only as long as the
// backing session; nothing in this package persists it.
type Identity struct {
	ID string
}

// Provider resolves the current identity and notifies on changes.
type Provider interface {
	// Current returns the identity bound to ctx, or false when the caller
	// is not signed in.
	Current(ctx context.Context) (Identity, bool)
	// Subscribe registers fn for every identity transition. The callback
	// receives the new identity, or ok=false on sign-out. Events are
	// delivered in publish order; the returned function removes the
	// subscription.
	Subscribe(fn func(Identity, bool)) (unsubscribe func())
}

// SessionProvider reads the identity from the request-scoped session and
// relays transitions through an embedded Broadcaster.
type SessionProvider struct {
	*Broadcaster
}

// NewSessionProvider constructs a SessionProvider.
func NewSessionProvider() *SessionProvider {
	return &SessionProvider{Broadcaster: NewBroadcaster()}
}

// Current extracts the signed-in user from the session in ctx.
func (p *SessionProvider) Current(ctx context.Context) (Identity, bool) {
	id := strings.TrimSpace(shared.ActorFromContext(ctx))
	if id == "" {
		return Identity{}, false
	}
	return Identity{ID: id}, true
}

var _ Provider = (*SessionProvider)(nil)
