package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"agrimart/cart"
	"agrimart/docstore"
	"agrimart/models"
)

// ValidateContact checks the checkout contact details.
func ValidateContact(info models.CustomerInfo) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(info.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(info.Email) == "" {
		errs["email"] = "Email is required"
	} else if !strings.Contains(info.Email, "@") {
		errs["email"] = "Please enter a valid email address"
	}
	if strings.TrimSpace(info.Phone) == "" {
		errs["phone"] = "Phone number is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Checkout persists the cart as a pending order and takes the ordered lines
// out of the cart once the write succeeded. A failed write leaves the cart
// untouched. Checkouts of one cart run one at a time.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, id *models.Identity, info models.CustomerInfo) (*models.Order, error) {
	var order *models.Order
	err := c.Checkout(ctx, func(items []models.CartItem) error {
		var err error
		order, err = s.place(ctx, "", items, id, info)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// errReplayed stops a cart checkout whose order already exists.
var errReplayed = errors.New("order already placed")

// CheckoutOnce is Checkout keyed by a client-chosen idempotency key. A retry
// with the same key by the same user returns the order the first attempt
// stored instead of placing another one.
func (s *Service) CheckoutOnce(ctx context.Context, key string, c *cart.Cart, id *models.Identity, info models.CustomerInfo) (*models.Order, error) {
	key = strings.TrimSpace(key)
	if key == "" || id == nil || id.ID == "" {
		return s.Checkout(ctx, c, id, info)
	}
	docID := idempotentID(id.ID, key)

	var order *models.Order
	err := c.Checkout(ctx, func(items []models.CartItem) error {
		stored, err := s.storedOrder(ctx, docID)
		if err == nil {
			order = stored
			return errReplayed
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		order, err = s.place(ctx, docID, items, id, info)
		if errors.Is(err, docstore.ErrAlreadyExists) {
			// another cart of the same user won the key
			if order, err = s.storedOrder(ctx, docID); err != nil {
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			return errReplayed
		}
		return err
	})
	if errors.Is(err, errReplayed) {
		s.logger.Info("checkout replayed", "docId", docID, "userId", id.ID)
		return order, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func idempotentID(userID, key string) string {
	sum := sha256.Sum256([]byte(userID + ":" + key))
	return hex.EncodeToString(sum[:12])
}

func (s *Service) storedOrder(ctx context.Context, docID string) (*models.Order, error) {
	doc, err := s.docs.Get(ctx, docstore.Orders, docID)
	if err != nil {
		return nil, err
	}
	o, err := models.DecodeOrder(doc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// place writes items as an order under docID, or a generated id when docID
// is empty.
func (s *Service) place(ctx context.Context, docID string, items []models.CartItem, id *models.Identity, info models.CustomerInfo) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if id == nil || id.ID == "" {
		return nil, ErrUnauthenticated
	}
	if errs := ValidateContact(info); errs != nil {
		return nil, errs
	}

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339)
	total := cart.Total(items)
	order := &models.Order{
		ID:            fmt.Sprintf("order-%d", now.UnixMilli()),
		Items:         items,
		Total:         total,
		TotalPrice:    total,
		Date:          stamp,
		OrderDate:     stamp,
		Status:        models.StatusPending,
		UserID:        id.ID,
		CustomerName:  strings.TrimSpace(info.Name),
		CustomerEmail: normalizeEmail(info.Email),
		CustomerPhone: strings.TrimSpace(info.Phone),
		CreatedAt:     stamp,
	}

	doc, err := models.Document(order)
	if err != nil {
		return nil, fmt.Errorf("%w: encode order: %v", ErrPersistence, err)
	}
	if docID == "" {
		docID, err = s.docs.Create(ctx, docstore.Orders, docstore.Compact(doc))
	} else {
		err = s.docs.CreateWithID(ctx, docstore.Orders, docID, docstore.Compact(doc))
	}
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("checkout write failed", "userId", id.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	order.DocID = docID

	s.metrics.OrderCreated()
	s.logger.Info("order created", "docId", docID, "orderId", order.ID, "userId", id.ID, "total", total)
	s.publish(ctx, docID, OrderCreatedEvent{
		Type:          EventOrderCreated,
		DocID:         docID,
		OrderID:       order.ID,
		UserID:        id.ID,
		CustomerEmail: order.CustomerEmail,
		Items:         items,
		Total:         total,
		Timestamp:     now,
	})
	return order, nil
}
