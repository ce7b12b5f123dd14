package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := NewBroadcaster()

	var got []string
	unsub := b.Subscribe(func(id Identity, ok bool) {
		if ok {
			got = append(got, id.ID)
		} else {
			got = append(got, "-")
		}
	})
	defer unsub()

	b.Publish(Identity{ID: "a"}, true)
	b.Publish(Identity{ID: "b"}, true)
	b.Publish(Identity{}, false)

	require.Equal(t, []string{"a", "b", "-"}, got)
}

func TestBroadcasterReplaysLatestToLateSubscriber(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Identity{ID: "a"}, true)
	b.Publish(Identity{}, false)

	var events int
	var lastOK bool
	unsub := b.Subscribe(func(id Identity, ok bool) {
		events++
		lastOK = ok
	})
	defer unsub()

	require.Equal(t, 1, events)
	require.False(t, lastOK, "a subscriber after sign-out must not see the stale identity")
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()

	var events int
	unsub := b.Subscribe(func(Identity, bool) { events++ })
	b.Publish(Identity{ID: "a"}, true)
	unsub()
	b.Publish(Identity{ID: "b"}, true)

	require.Equal(t, 1, events)
}
