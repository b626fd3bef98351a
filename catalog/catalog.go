// Package catalog serves the product catalog from the products collection.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"agrimart/docstore"
	"agrimart/models"
)

//go:embed products.json
var seedData []byte

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnknownType = errors.New("unknown product type")
	ErrUnavailable = errors.New("product is not available")
	ErrNotForSale  = errors.New("equipment is booked, not bought")
)

// Purchasable reports whether p may go into a cart.
func Purchasable(p models.Product) error {
	if p.Type == models.TypeEquipment {
		return fmt.Errorf("%w: %s", ErrNotForSale, p.ID)
	}
	if !p.Available {
		return fmt.Errorf("%w: %s", ErrUnavailable, p.ID)
	}
	return nil
}

// Bookable reports whether p may be booked for rental.
func Bookable(p models.Product) error {
	if p.Type != models.TypeEquipment {
		return fmt.Errorf("%w: %s is not rental equipment", ErrNotFound, p.ID)
	}
	if !p.Available {
		return fmt.Errorf("%w: %s", ErrUnavailable, p.ID)
	}
	return nil
}

// sections maps URL segments to product types.
var sections = map[string]models.ProductType{
	"equipment":  models.TypeEquipment,
	"seeds":      models.TypeSeed,
	"pesticides": models.TypePesticide,
	"tools":      models.TypeTool,
}

// ParseSection maps a URL segment such as "seeds" to its product type.
func ParseSection(s string) (models.ProductType, error) {
	if t, ok := sections[s]; ok {
		return t, nil
	}
	if t := models.ProductType(s); t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

type Catalog struct {
	docs   docstore.Store
	logger *slog.Logger
}

func New(docs docstore.Store, logger *slog.Logger) *Catalog {
	return &Catalog{docs: docs, logger: logger}
}

// Defaults returns the built-in product list.
func Defaults() ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(seedData, &products); err != nil {
		return nil, fmt.Errorf("decode built-in catalog: %w", err)
	}
	return products, nil
}

// Seed writes every built-in product that is not stored yet.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	products, err := Defaults()
	if err != nil {
		return 0, err
	}
	added := 0
	for _, p := range products {
		doc, err := models.Document(p)
		if err != nil {
			return added, fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		err = c.docs.CreateWithID(ctx, docstore.Products, p.ID, docstore.Compact(doc))
		if errors.Is(err, docstore.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
		added++
	}
	c.logger.Info("catalog seeded", "added", added, "total", len(products))
	return added, nil
}

// List returns the products of one type.
func (c *Catalog) List(ctx context.Context, t models.ProductType) ([]models.Product, error) {
	docs, err := c.docs.Query(ctx, docstore.Products, docstore.Filter{"type": string(t)})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t, err)
	}
	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := models.DecodeProduct(d)
		if err != nil {
			c.logger.Warn("skipping malformed product", "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns one product by id.
func (c *Catalog) Get(ctx context.Context, id string) (models.Product, error) {
	doc, err := c.docs.Get(ctx, docstore.Products, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return models.DecodeProduct(doc)
}
