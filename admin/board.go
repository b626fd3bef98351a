package admin

import (
	"agrimart/models"
)

// AnonymousCustomer is shown when an order carries no customer name.
const AnonymousCustomer = "Anonymous Customer"

type OrderRow struct {
	Order     models.Order `json:"order"`
	Total     float64      `json:"total"`
	Date      string       `json:"date"`
	Customer  string       `json:"customer"`
	ItemCount int          `json:"itemCount"`
	Actions   []Action     `json:"actions"`
}

type BookingRow struct {
	Booking  models.Booking `json:"booking"`
	Created  string         `json:"created"`
	Customer string         `json:"customer"`
	Dates    string         `json:"dates"`
	Actions  []Action       `json:"actions"`
}

// Board is the reviewer's view, grouped by status.
type Board struct {
	Orders   map[models.Status][]OrderRow   `json:"orders"`
	Bookings map[models.Status][]BookingRow `json:"bookings"`
}

func customerName(name string) string {
	if name == "" {
		return AnonymousCustomer
	}
	return name
}

// GroupOrders groups orders by status. Every status has an entry.
func GroupOrders(orders []models.Order) map[models.Status][]OrderRow {
	out := make(map[models.Status][]OrderRow, len(models.Statuses))
	for _, s := range models.Statuses {
		out[s] = []OrderRow{}
	}
	for _, o := range orders {
		out[o.Status] = append(out[o.Status], OrderRow{
			Order:     o,
			Total:     o.Amount(),
			Date:      FormatIfValid(o.PlacedAt(), DateTimeLayout),
			Customer:  customerName(o.CustomerName),
			ItemCount: len(o.Items),
			Actions:   Actions(o.Status),
		})
	}
	return out
}

// GroupBookings groups bookings by status. Every status has an entry.
func GroupBookings(bookings []models.Booking) map[models.Status][]BookingRow {
	out := make(map[models.Status][]BookingRow, len(models.Statuses))
	for _, s := range models.Statuses {
		out[s] = []BookingRow{}
	}
	for _, b := range bookings {
		out[b.Status] = append(out[b.Status], BookingRow{
			Booking:  b,
			Created:  FormatIfValid(b.CreatedAt, DayLayout),
			Customer: customerName(b.CustomerName),
			Dates:    FormatBookingDates(b.Dates),
			Actions:  Actions(b.Status),
		})
	}
	return out
}
