package storage

import (
	"context"
	"sync"
)

// Notifier fans visit-change signals out to subscribers. Each subscriber
// channel holds at most one pending signal, so a slow reader sees one
// wake-up rather than one per write.
type Notifier struct {
	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	closed bool
}

// NewNotifier returns a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a channel that receives signals until ctx is done,
// DropAll or Close runs. After Close it returns an already closed channel.
func (n *Notifier) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch
	}
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.unsubscribe(ch)
	}()
	return ch
}

func (n *Notifier) unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[ch]; ok {
		delete(n.subs, ch)
		close(ch)
	}
}

// Publish signals every subscriber without blocking.
func (n *Notifier) Publish() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Len reports the number of live subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// DropAll closes every current subscription. Later Subscribe calls still work.
func (n *Notifier) DropAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropLocked()
}

// Close closes every subscription and refuses new ones.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.dropLocked()
}

func (n *Notifier) dropLocked() {
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}
