package models

// CartItem is one line of the cart: a product snapshot plus a quantity >= 1.
type CartItem struct {
	ID       string      `json:"id" bson:"id"`
	Name     string      `json:"name" bson:"name"`
	Price    float64     `json:"price" bson:"price"`
	Image    string      `json:"image,omitempty" bson:"image,omitempty"`
	Type     ProductType `json:"type,omitempty" bson:"type,omitempty"`
	Quantity int         `json:"quantity" bson:"quantity"`
}

// Subtotal is price times quantity.
func (c CartItem) Subtotal() float64 {
	return c.Price * float64(c.Quantity)
}

// CustomerInfo holds the contact details collected at checkout.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
