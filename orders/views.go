package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agrimart/docstore"
	"agrimart/models"
)

// scope returns the store filter for what id may see. Admins see the whole
// collection; everyone else sees records carrying their email.
func scope(id *models.Identity) docstore.Filter {
	if id.IsAdmin() {
		return nil
	}
	return docstore.Filter{"customerEmail": normalizeEmail(id.Email)}
}

func (s *Service) decodeOrders(docs []docstore.Document) []models.Order {
	out := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		o, err := models.DecodeOrder(d)
		if err != nil {
			s.logger.Warn("skipping malformed order", "error", err)
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlacedAt() > out[j].PlacedAt() })
	return out
}

func (s *Service) decodeBookings(docs []docstore.Document) []models.Booking {
	out := make([]models.Booking, 0, len(docs))
	for _, d := range docs {
		b, err := models.DecodeBooking(d)
		if err != nil {
			s.logger.Warn("skipping malformed booking", "error", err)
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// ListOrders returns the current order view for id.
func (s *Service) ListOrders(ctx context.Context, id *models.Identity) ([]models.Order, error) {
	if id == nil {
		return []models.Order{}, nil
	}
	docs, err := s.docs.Query(ctx, docstore.Orders, scope(id))
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrPersistence, err)
	}
	return s.decodeOrders(docs), nil
}

// ListBookings returns the current booking view for id.
func (s *Service) ListBookings(ctx context.Context, id *models.Identity) ([]models.Booking, error) {
	if id == nil {
		return []models.Booking{}, nil
	}
	docs, err := s.docs.Query(ctx, docstore.Bookings, scope(id))
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", ErrPersistence, err)
	}
	return s.decodeBookings(docs), nil
}

// SubscribeOrders pushes the order view for id now and after every change to
// it. A nil identity gets a single empty view.
func (s *Service) SubscribeOrders(ctx context.Context, id *models.Identity, fn func([]models.Order)) (func(), error) {
	if id == nil {
		fn([]models.Order{})
		return func() {}, nil
	}
	return s.docs.Subscribe(ctx, docstore.Orders, scope(id), func(docs []docstore.Document) {
		fn(s.decodeOrders(docs))
	})
}

// SubscribeBookings is SubscribeOrders for bookings.
func (s *Service) SubscribeBookings(ctx context.Context, id *models.Identity, fn func([]models.Booking)) (func(), error) {
	if id == nil {
		fn([]models.Booking{})
		return func() {}, nil
	}
	return s.docs.Subscribe(ctx, docstore.Bookings, scope(id), func(docs []docstore.Document) {
		fn(s.decodeBookings(docs))
	})
}

// LiveView owns at most one subscription. Following a new identity tears the
// previous subscription down first.
type LiveView struct {
	follow func(ctx context.Context, id *models.Identity) (func(), error)

	mu     sync.Mutex
	cancel func()
	closed bool
}

// OrdersView returns a LiveView that feeds order views to fn.
func (s *Service) OrdersView(fn func([]models.Order)) *LiveView {
	return &LiveView{follow: func(ctx context.Context, id *models.Identity) (func(), error) {
		return s.SubscribeOrders(ctx, id, fn)
	}}
}

// BookingsView returns a LiveView that feeds booking views to fn.
func (s *Service) BookingsView(fn func([]models.Booking)) *LiveView {
	return &LiveView{follow: func(ctx context.Context, id *models.Identity) (func(), error) {
		return s.SubscribeBookings(ctx, id, fn)
	}}
}

// Follow replaces the current subscription with one scoped to id.
func (v *LiveView) Follow(ctx context.Context, id *models.Identity) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	cancel, err := v.follow(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: subscribe: %v", ErrPersistence, err)
	}
	v.cancel = cancel
	return nil
}

// Close ends the subscription. Later calls to Follow do nothing.
func (v *LiveView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}
