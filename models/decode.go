package models

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrInvalidDocument marks a stored document that does not fit its record type.
var ErrInvalidDocument = errors.New("invalid document")

func decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

func docID(doc bson.M) string {
	id, _ := doc["_id"].(string)
	return id
}

// DecodeOrder converts a stored order document into an Order.
func DecodeOrder(doc bson.M) (Order, error) {
	var o Order
	if err := decode(doc, &o); err != nil {
		return Order{}, err
	}
	o.DocID = docID(doc)
	if !o.Status.Valid() {
		return Order{}, fmt.Errorf("%w: order %s has status %q", ErrInvalidDocument, o.DocID, o.Status)
	}
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: order %s item %s has quantity %d", ErrInvalidDocument, o.DocID, it.ID, it.Quantity)
		}
	}
	return o, nil
}

// DecodeBooking converts a stored booking document into a Booking.
func DecodeBooking(doc bson.M) (Booking, error) {
	var b Booking
	if err := decode(doc, &b); err != nil {
		return Booking{}, err
	}
	b.DocID = docID(doc)
	if !b.Status.Valid() {
		return Booking{}, fmt.Errorf("%w: booking %s has status %q", ErrInvalidDocument, b.DocID, b.Status)
	}
	if b.EquipmentID == "" {
		return Booking{}, fmt.Errorf("%w: booking %s has no equipment", ErrInvalidDocument, b.DocID)
	}
	return b, nil
}

// DecodeUser converts a users document into a UserRecord.
func DecodeUser(doc bson.M) (UserRecord, error) {
	var u UserRecord
	if err := decode(doc, &u); err != nil {
		return UserRecord{}, err
	}
	if u.UID == "" {
		u.UID = docID(doc)
	}
	role, err := ParseRole(string(u.Role))
	if err != nil {
		return UserRecord{}, fmt.Errorf("%w: user %s: %v", ErrInvalidDocument, u.UID, err)
	}
	u.Role = role
	return u, nil
}

// DecodeProduct converts a products document into a Product.
func DecodeProduct(doc bson.M) (Product, error) {
	var p Product
	if err := decode(doc, &p); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = docID(doc)
	}
	if !p.Type.Valid() {
		return Product{}, fmt.Errorf("%w: product %s has type %q", ErrInvalidDocument, p.ID, p.Type)
	}
	if p.Price < 0 || p.RentalPrice < 0 {
		return Product{}, fmt.Errorf("%w: product %s has a negative price", ErrInvalidDocument, p.ID)
	}
	return p, nil
}

// Identity projects the record onto the session identity.
func (u UserRecord) Identity() *Identity {
	return &Identity{ID: u.UID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Document renders v as a bson.M using its bson tags.
func Document(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
