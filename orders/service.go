// Package orders turns carts and booking forms into stored records and keeps
// identity-scoped views of them live.
package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agrimart/docstore"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnauthenticated   = errors.New("sign in required")
	ErrPersistence       = errors.New("could not save")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record changed concurrently")
)

// Kind names the record type a status change applies to.
type Kind string

const (
	KindOrder   Kind = "order"
	KindBooking Kind = "booking"
)

func (k Kind) collection() string {
	if k == KindBooking {
		return docstore.Bookings
	}
	return docstore.Orders
}

// Metrics receives business counters.
type Metrics interface {
	OrderCreated()
	BookingCreated()
	StatusChanged(kind, result string)
}

type nopMetrics struct{}

func (nopMetrics) OrderCreated()                {}
func (nopMetrics) BookingCreated()              {}
func (nopMetrics) StatusChanged(string, string) {}

type Service struct {
	docs      docstore.Store
	publisher Publisher
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(docs docstore.Store, publisher Publisher, metrics Metrics, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		docs:      docs,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) publish(ctx context.Context, key string, event any) {
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("publish event failed", "key", key, "error", err)
	}
}
