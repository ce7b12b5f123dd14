package identity

import "sync"

// Broadcaster fans identity transitions out to subscribers. Delivery is
// synchronous and holds the lock, so subscribers observe events in publish
// order and never see a replay of an identity that signed out.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Identity, bool)
	last   Identity
	lastOK bool
	seen   bool
}

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(Identity, bool))}
}

// Publish records the latest identity state and notifies all subscribers.
// ok=false announces a sign-out.
func (b *Broadcaster) Publish(id Identity, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = id
	b.lastOK = ok
	b.seen = true
	for _, fn := range b.subs {
		fn(id, ok)
	}
}

// Subscribe registers fn and immediately replays the latest known state so
// late subscribers converge without waiting for the next transition.
func (b *Broadcaster) Subscribe(fn func(Identity, bool)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	last, lastOK, seen := b.last, b.lastOK, b.seen
	b.mu.Unlock()

	if seen {
		fn(last, lastOK)
	}
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
