package docstore

import (
	"context"
	"sync"
)

// Notifier fans out "collection changed" signals to listeners.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	Listen(collection string, fn func()) (stop func())
}

// LocalNotifier delivers signals within one process.
type LocalNotifier struct {
	mu        sync.RWMutex
	next      int
	listeners map[string]map[int]func()
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[int]func())}
}

func (n *LocalNotifier) Publish(_ context.Context, collection string) error {
	n.mu.RLock()
	fns := make([]func(), 0, len(n.listeners[collection]))
	for _, fn := range n.listeners[collection] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (n *LocalNotifier) Listen(collection string, fn func()) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	if n.listeners[collection] == nil {
		n.listeners[collection] = make(map[int]func())
	}
	n.listeners[collection][id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners[collection], id)
			n.mu.Unlock()
		})
	}
}
