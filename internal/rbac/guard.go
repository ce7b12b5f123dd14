package rbac

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
)

// GuardState is the authorization decision exposed to the UI boundary.
type GuardState int

const (
	// StatePending means an identity or role check is still in flight.
	StatePending GuardState = iota
	// StateAuthorized allows the protected content.
	StateAuthorized
	// StateDenied redirects to the configured fallback.
	StateDenied
)

// String returns a readable state name.
func (s GuardState) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "pending"
	}
}

// RoleChecker resolves role membership for the Guard.
type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, role Role) (bool, error)
}

const guardLookupTimeout = 5 * time.Second

// Guard combines the identity provider and role resolver into a single
// authorization decision. Every identity transition and every change of the
// required role triggers a fresh evaluation; each evaluation carries a
// generation number and only the latest generation may apply its result, so
// a slow lookup for a superseded identity can never overwrite a newer
// decision.
type Guard struct {
	checker RoleChecker
	logger  *slog.Logger

	mu          sync.Mutex
	required    Role
	state       GuardState
	gen         uint64
	current     identity.Identity
	hasIdentity bool
	seen        bool
	unsubscribe func()
}

// NewGuard constructs a Guard subscribed to the provider. An empty required
// role authorizes any signed-in identity. Call Close to release the
// subscription.
func NewGuard(provider identity.Provider, checker RoleChecker, logger *slog.Logger, required Role) *Guard {
	g := &Guard{
		checker:  checker,
		logger:   logger,
		required: required,
		state:    StatePending,
	}
	g.unsubscribe = provider.Subscribe(g.onIdentity)
	return g
}

// Close releases the identity subscription.
func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

// State returns the last applied decision.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SetRequiredRole changes the required role and re-evaluates.
func (g *Guard) SetRequiredRole(role Role) {
	g.mu.Lock()
	g.required = role
	g.mu.Unlock()
	g.evaluate()
}

func (g *Guard) onIdentity(id identity.Identity, ok bool) {
	g.mu.Lock()
	g.current = id
	g.hasIdentity = ok
	g.seen = true
	g.mu.Unlock()
	g.evaluate()
}

func (g *Guard) evaluate() {
	g.mu.Lock()
	g.gen++
	gen := g.gen
	if !g.seen {
		g.state = StatePending
		g.mu.Unlock()
		return
	}
	if !g.hasIdentity {
		g.state = StateDenied
		g.mu.Unlock()
		return
	}
	required := g.required
	id := g.current
	if required == "" {
		g.state = StateAuthorized
		g.mu.Unlock()
		return
	}
	g.state = StatePending
	g.mu.Unlock()

	go g.resolve(gen, id, required)
}

func (g *Guard) resolve(gen uint64, id identity.Identity, required Role) {
	ctx, cancel := context.WithTimeout(context.Background(), guardLookupTimeout)
	defer cancel()

	allowed := false
	userID, err := strconv.ParseInt(id.ID, 10, 64)
	if err == nil {
		allowed, err = g.checker.HasRole(ctx, userID, required)
	}
	if err != nil {
		// Fail closed: a lookup fault denies access.
		allowed = false
		if g.logger != nil {
			g.logger.Error("guard role lookup", slog.String("user", id.ID), slog.Any("error", err))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		// A newer evaluation superseded this lookup; drop the result.
		return
	}
	if allowed {
		g.state = StateAuthorized
	} else {
		g.state = StateDenied
	}
}
