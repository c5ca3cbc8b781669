// Package broker provides an in-memory pub/sub mechanism scoped by user ID.
// It is used to notify SSE connections when a user's playlists change.
package broker

import "sync"

// Broker is a user-scoped pub/sub hub. Subscribers receive a signal (empty
// struct) whenever Notify is called for their user. Channels are buffered to
// 1 so multiple rapid notifications coalesce into a single signal.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// New creates a ready-to-use Broker.
func New() *Broker {
	return &Broker{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers a listener for the user's changes. The returned
// cancel function must be called when the listener goes away.
func (b *Broker) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan struct{}]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subs[userID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Notify sends a non-blocking signal to every subscriber for the given user.
// Because channels are buffered to 1, a pending unread signal is not duplicated.
func (b *Broker) Notify(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
