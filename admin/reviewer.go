package admin

import (
	"context"
	"errors"
	"fmt"

	"agrimart/models"
	"agrimart/orders"
)

// Workflow is the slice of the orders service the reviewer drives.
type Workflow interface {
	ListOrders(ctx context.Context, id *models.Identity) ([]models.Order, error)
	ListBookings(ctx context.Context, id *models.Identity) ([]models.Booking, error)
	Status(ctx context.Context, kind orders.Kind, docID string) (models.Status, error)
	SetStatus(ctx context.Context, kind orders.Kind, docID string, next models.Status) error
}

var ErrForbidden = errors.New("admin role required")

type Reviewer struct {
	flow Workflow
}

func NewReviewer(flow Workflow) *Reviewer {
	return &Reviewer{flow: flow}
}

// Board builds the grouped view for an admin identity.
func (r *Reviewer) Board(ctx context.Context, id *models.Identity) (*Board, error) {
	if !id.IsAdmin() {
		return nil, ErrForbidden
	}
	list, err := r.flow.ListOrders(ctx, id)
	if err != nil {
		return nil, err
	}
	bs, err := r.flow.ListBookings(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Board{Orders: GroupOrders(list), Bookings: GroupBookings(bs)}, nil
}

// Apply performs a named action if it is offered for the record's current
// status and returns the status it moved to.
func (r *Reviewer) Apply(ctx context.Context, kind orders.Kind, docID, action string) (models.Status, error) {
	current, err := r.flow.Status(ctx, kind, docID)
	if err != nil {
		return "", err
	}
	a, ok := findAction(current, action)
	if !ok {
		return "", fmt.Errorf("%w: %q is not offered for %s %s", orders.ErrIllegalTransition, action, current, kind)
	}
	if err := r.flow.SetStatus(ctx, kind, docID, a.Target); err != nil {
		return "", err
	}
	return a.Target, nil
}
