package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
)

type staticChecker struct {
	granted map[int64]bool
	err     error
}

func (c *staticChecker) HasRole(ctx context.Context, userID int64, role Role) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.granted[userID], nil
}

type roleCall struct {
	userID  int64
	release chan struct{}
}

// gatedChecker blocks each lookup until the test releases it, so completion
// order can be forced independent of issue order.
type gatedChecker struct {
	calls chan *roleCall
}

func (c *gatedChecker) HasRole(ctx context.Context, userID int64, role Role) (bool, error) {
	rc := &roleCall{userID: userID, release: make(chan struct{})}
	c.calls <- rc
	<-rc.release
	// user 2 holds the role, user 1 does not
	return userID == 2, nil
}

func waitForState(t *testing.T, g *Guard, want GuardState) {
	t.Helper()
	require.Eventually(t, func() bool { return g.State() == want }, 2*time.Second, 5*time.Millisecond,
		"expected guard state %v", want)
}

func TestGuardDeniesWithoutIdentity(t *testing.T) {
	b := identity.NewBroadcaster()
	g := NewGuard(providerOf(b), &staticChecker{}, nil, RoleAdmin)
	defer g.Close()

	require.Equal(t, StatePending, g.State())
	b.Publish(identity.Identity{}, false)
	require.Equal(t, StateDenied, g.State())
}

func TestGuardAuthorizesWithoutRequiredRole(t *testing.T) {
	b := identity.NewBroadcaster()
	g := NewGuard(providerOf(b), &staticChecker{}, nil, "")
	defer g.Close()

	b.Publish(identity.Identity{ID: "7"}, true)
	require.Equal(t, StateAuthorized, g.State())
}

func TestGuardDeniesMissingAssignment(t *testing.T) {
	b := identity.NewBroadcaster()
	g := NewGuard(providerOf(b), &staticChecker{granted: map[int64]bool{}}, nil, RoleAdmin)
	defer g.Close()

	b.Publish(identity.Identity{ID: "7"}, true)
	waitForState(t, g, StateDenied)
}

func TestGuardFailsClosedOnLookupError(t *testing.T) {
	b := identity.NewBroadcaster()
	g := NewGuard(providerOf(b), &staticChecker{err: ErrLookup}, nil, RoleAdmin)
	defer g.Close()

	b.Publish(identity.Identity{ID: "7"}, true)
	waitForState(t, g, StateDenied)
}

func TestGuardAuthorizesAssignedRole(t *testing.T) {
	b := identity.NewBroadcaster()
	g := NewGuard(providerOf(b), &staticChecker{granted: map[int64]bool{7: true}}, nil, RoleAdmin)
	defer g.Close()

	b.Publish(identity.Identity{ID: "7"}, true)
	waitForState(t, g, StateAuthorized)
}

func TestGuardSupersedesStaleLookups(t *testing.T) {
	b := identity.NewBroadcaster()
	checker := &gatedChecker{calls: make(chan *roleCall, 3)}
	g := NewGuard(providerOf(b), checker, nil, RoleAdmin)
	defer g.Close()

	// Identity flips A, B, A in rapid succession. User 1 (A) lacks the
	// role, user 2 (B) holds it.
	b.Publish(identity.Identity{ID: "1"}, true)
	b.Publish(identity.Identity{ID: "2"}, true)
	b.Publish(identity.Identity{ID: "1"}, true)

	var aCalls []*roleCall
	var bCall *roleCall
	for i := 0; i < 3; i++ {
		select {
		case rc := <-checker.calls:
			if rc.userID == 2 {
				bCall = rc
			} else {
				aCalls = append(aCalls, rc)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected three role lookups")
		}
	}
	require.Len(t, aCalls, 2)
	require.NotNil(t, bCall)

	// Complete both A lookups first, then let B's resolve last.
	close(aCalls[0].release)
	close(aCalls[1].release)
	waitForState(t, g, StateDenied)

	close(bCall.release)
	require.Never(t, func() bool { return g.State() == StateAuthorized }, 200*time.Millisecond, 10*time.Millisecond,
		"stale lookup for a superseded identity must not flip the decision")
}

func providerOf(b *identity.Broadcaster) identity.Provider {
	return broadcastProvider{b}
}

type broadcastProvider struct {
	*identity.Broadcaster
}

func (broadcastProvider) Current(ctx context.Context) (identity.Identity, bool) {
	return identity.Identity{}, false
}
