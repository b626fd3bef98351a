package models

// Order is a checked-out cart. Total/TotalPrice and Date/OrderDate are
// written as mirrored pairs so older readers of either name keep working.
type Order struct {
	DocID         string     `json:"docId,omitempty" bson:"-"`
	ID            string     `json:"id" bson:"id"`
	Items         []CartItem `json:"items" bson:"items"`
	Total         float64    `json:"total" bson:"total"`
	TotalPrice    float64    `json:"totalPrice" bson:"totalPrice"`
	Date          string     `json:"date" bson:"date"`
	OrderDate     string     `json:"orderDate" bson:"orderDate"`
	Status        Status     `json:"status" bson:"status"`
	UserID        string     `json:"userId" bson:"userId"`
	CustomerName  string     `json:"customerName,omitempty" bson:"customerName,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`
	CreatedAt     string     `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// Amount prefers TotalPrice and falls back to Total.
func (o Order) Amount() float64 {
	if o.TotalPrice != 0 {
		return o.TotalPrice
	}
	return o.Total
}

// PlacedAt prefers OrderDate and falls back to Date.
func (o Order) PlacedAt() string {
	if o.OrderDate != "" {
		return o.OrderDate
	}
	return o.Date
}
