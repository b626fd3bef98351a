package docstore

import (
	"context"
	"reflect"
	"sync"
)

type querier interface {
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
}

// watch delivers the matching set now and again after every change signal
// that alters it. fn runs on one goroutine at a time. The returned cancel
// waits for an in-flight callback, so it must not be called from inside fn.
func watch(ctx context.Context, q querier, n Notifier, collection string, filter Filter, fn func([]Document), onErr func(error)) (func(), error) {
	signal := make(chan struct{}, 1)
	stopListen := n.Listen(collection, func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	docs, err := q.Query(ctx, collection, filter)
	if err != nil {
		stopListen()
		return nil, err
	}
	fn(docs)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		last := docs
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-signal:
			}
			next, err := q.Query(ctx, collection, filter)
			if err != nil {
				if onErr != nil && ctx.Err() == nil {
					onErr(err)
				}
				continue
			}
			if reflect.DeepEqual(next, last) {
				continue
			}
			select {
			case <-done:
				return
			default:
			}
			last = next
			fn(next)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopListen()
			close(done)
			<-exited
		})
	}, nil
}
