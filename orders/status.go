package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimart/docstore"
	"agrimart/models"
)

// SetOrderStatus moves an order to next if the transition is legal.
func (s *Service) SetOrderStatus(ctx context.Context, docID string, next models.Status) error {
	return s.SetStatus(ctx, KindOrder, docID, next)
}

// SetBookingStatus moves a booking to next if the transition is legal.
func (s *Service) SetBookingStatus(ctx context.Context, docID string, next models.Status) error {
	return s.SetStatus(ctx, KindBooking, docID, next)
}

// Order returns one stored order by document id.
func (s *Service) Order(ctx context.Context, docID string) (*models.Order, error) {
	o, err := s.storedOrder(ctx, docID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load order: %v", ErrPersistence, err)
	}
	return o, nil
}

// Status reads the current status of a record.
func (s *Service) Status(ctx context.Context, kind Kind, docID string) (models.Status, error) {
	doc, err := s.docs.Get(ctx, kind.collection(), docID)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, kind, docID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: load %s: %v", ErrPersistence, kind, err)
	}
	raw, _ := doc["status"].(string)
	current, err := models.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %v", ErrIllegalTransition, kind, docID, err)
	}
	return current, nil
}

// SetStatus applies a transition only while the stored status is still the
// one it was read as, so concurrent reviewers cannot overwrite each other.
func (s *Service) SetStatus(ctx context.Context, kind Kind, docID string, next models.Status) error {
	if !next.Valid() {
		s.metrics.StatusChanged(string(kind), "illegal")
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, next)
	}
	current, err := s.Status(ctx, kind, docID)
	if err != nil {
		return err
	}
	if !models.CanTransition(current, next) {
		s.metrics.StatusChanged(string(kind), "illegal")
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
	}

	now := s.now().UTC()
	err = s.docs.UpdateIf(ctx, kind.collection(), docID,
		docstore.Filter{"status": string(current)},
		docstore.Document{"status": string(next), "updatedAt": now.Format(time.RFC3339)},
	)
	switch {
	case errors.Is(err, docstore.ErrConflict):
		s.metrics.StatusChanged(string(kind), "conflict")
		return fmt.Errorf("%w: %s %s", ErrConflict, kind, docID)
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, docID)
	case err != nil:
		s.metrics.StatusChanged(string(kind), "error")
		return fmt.Errorf("%w: update %s: %v", ErrPersistence, kind, err)
	}

	s.metrics.StatusChanged(string(kind), "ok")
	s.logger.Info("status changed", "kind", kind, "docId", docID, "from", current, "to", next)

	eventType := EventOrderStatusChanged
	if kind == KindBooking {
		eventType = EventBookingStatusChanged
	}
	s.publish(ctx, docID, StatusChangedEvent{
		Type:      eventType,
		DocID:     docID,
		From:      current,
		To:        next,
		Timestamp: now,
	})
	return nil
}
