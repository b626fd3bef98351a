package rdx

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "docstore:changed:"

type channel struct {
	pubsub    *redis.PubSub
	listeners map[int]func()
}

// Notifier publishes collection change signals on one Redis channel per
// collection and dispatches incoming signals to local listeners.
type Notifier struct {
	client *redis.Client
	logger *slog.Logger

	mu       sync.Mutex
	next     int
	channels map[string]*channel
}

func NewNotifier(client *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		client:   client,
		logger:   logger,
		channels: make(map[string]*channel),
	}
}

func (n *Notifier) Publish(ctx context.Context, collection string) error {
	return n.client.Publish(ctx, channelPrefix+collection, collection).Err()
}

func (n *Notifier) Listen(collection string, fn func()) func() {
	n.mu.Lock()
	ch, ok := n.channels[collection]
	if !ok {
		ch = &channel{
			pubsub:    n.client.Subscribe(context.Background(), channelPrefix+collection),
			listeners: make(map[int]func()),
		}
		n.channels[collection] = ch
		go n.dispatch(collection, ch)
	}
	id := n.next
	n.next++
	ch.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(collection, id) })
	}
}

func (n *Notifier) remove(collection string, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.channels[collection]
	if !ok {
		return
	}
	delete(ch.listeners, id)
	if len(ch.listeners) == 0 {
		delete(n.channels, collection)
		if err := ch.pubsub.Close(); err != nil {
			n.logger.Warn("close redis subscription", "collection", collection, "error", err)
		}
	}
}

func (n *Notifier) dispatch(collection string, ch *channel) {
	for range ch.pubsub.Channel() {
		n.mu.Lock()
		fns := make([]func(), 0, len(ch.listeners))
		for _, fn := range ch.listeners {
			fns = append(fns, fn)
		}
		n.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
	n.logger.Debug("redis change channel closed", "collection", collection)
}

// Close drops every subscription.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for name, ch := range n.channels {
		if err := ch.pubsub.Close(); err != nil {
			n.logger.Warn("close redis subscription", "collection", name, "error", err)
		}
		delete(n.channels, name)
	}
	return nil
}
