// Package notifier provides a keyed broadcast mechanism for SSE updates.
package notifier

import "sync"

// Notifier broadcasts update signals to the listeners of a key.
// Listeners receive an empty struct when their key changed and should
// re-read the session they watch.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings when key changes.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(key string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	set, ok := n.listeners[key]
	if !ok {
		set = make(map[chan struct{}]struct{})
		n.listeners[key] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel of key and closes it.
func (n *Notifier) Unsubscribe(key string, ch chan struct{}) {
	n.mu.Lock()
	if set, ok := n.listeners[key]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(n.listeners, key)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener of key.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Broadcast(key string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners[key] {
		select {
		case ch <- struct{}{}:
		default:
			// already pending
		}
	}
}

// Listeners returns the number of listeners subscribed to key.
func (n *Notifier) Listeners(key string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[key])
}
