package orders

import (
	"context"
	"time"

	"agrimart/models"
)

// Event types.
const (
	EventOrderCreated         = "order.created"
	EventBookingCreated       = "booking.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventBookingStatusChanged = "booking.status_changed"
)

// Publisher emits domain events keyed by record id.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

type OrderCreatedEvent struct {
	Type          string            `json:"type"`
	DocID         string            `json:"docId"`
	OrderID       string            `json:"orderId"`
	UserID        string            `json:"userId"`
	CustomerEmail string            `json:"customerEmail"`
	Items         []models.CartItem `json:"items"`
	Total         float64           `json:"total"`
	Timestamp     time.Time         `json:"timestamp"`
}

type BookingCreatedEvent struct {
	Type          string    `json:"type"`
	DocID         string    `json:"docId"`
	EquipmentID   string    `json:"equipmentId"`
	UserID        string    `json:"userId,omitempty"`
	CustomerEmail string    `json:"customerEmail"`
	Dates         []string  `json:"dates"`
	Timestamp     time.Time `json:"timestamp"`
}

type StatusChangedEvent struct {
	Type      string        `json:"type"`
	DocID     string        `json:"docId"`
	From      models.Status `json:"from"`
	To        models.Status `json:"to"`
	Timestamp time.Time     `json:"timestamp"`
}
