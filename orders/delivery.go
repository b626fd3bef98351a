package orders

import (
	"time"

	"agrimart/models"
)

// Delivery window after an order is placed, in days.
const (
	DeliveryMinDays = 3
	DeliveryMaxDays = 7
)

// DeliveryEstimate returns the earliest and latest expected delivery days
// for o. ok is false when the order date cannot be read.
func DeliveryEstimate(o models.Order) (earliest, latest time.Time, ok bool) {
	placed, err := time.Parse(time.RFC3339, o.PlacedAt())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return placed.AddDate(0, 0, DeliveryMinDays), placed.AddDate(0, 0, DeliveryMaxDays), true
}
