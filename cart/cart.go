// Package cart is the client-side shopping cart. It performs no I/O.
package cart

import (
	"context"
	"sync"

	"agrimart/models"
)

// Cart keeps at most one line per product id, in insertion order.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem

	// held for the length of one checkout
	checkout chan struct{}
}

func New() *Cart {
	return &Cart{checkout: make(chan struct{}, 1)}
}

// AddItem adds one unit of p, merging with an existing line.
func (c *Cart) AddItem(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, models.CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Type:     p.Type,
		Quantity: 1,
	})
}

// RemoveItem drops the line for id. Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(id)
}

// SetQuantity sets the line quantity; q <= 0 removes the line.
func (c *Cart) SetQuantity(id string, q int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q <= 0 {
		c.remove(id)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = q
			return
		}
	}
}

func (c *Cart) remove(id string) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Checkout hands a snapshot of the lines to place, one checkout per cart at
// a time. When place succeeds the ordered quantities leave the cart; lines
// added while place ran stay.
func (c *Cart) Checkout(ctx context.Context, place func([]models.CartItem) error) error {
	select {
	case c.checkout <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.checkout }()

	items := c.Items()
	if err := place(items); err != nil {
		return err
	}
	c.take(items)
	return nil
}

// take subtracts the ordered quantities.
func (c *Cart) take(ordered []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range ordered {
		for i := range c.items {
			if c.items[i].ID != o.ID {
				continue
			}
			c.items[i].Quantity -= o.Quantity
			if c.items[i].Quantity <= 0 {
				c.remove(o.ID)
			}
			break
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the lines.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of price times quantity.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.items)
}

// Total sums price times quantity over items.
func Total(items []models.CartItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}
