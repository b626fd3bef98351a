package models

// ProductType is the catalog section a product belongs to.
type ProductType string

const (
	TypeEquipment ProductType = "equipment"
	TypeSeed      ProductType = "seed"
	TypePesticide ProductType = "pesticide"
	TypeTool      ProductType = "tool"
)

// Product is a catalog entry. Equipment additionally carries rental terms.
type Product struct {
	ID           string      `json:"id" bson:"id"`
	Name         string      `json:"name" bson:"name"`
	Description  string      `json:"description,omitempty" bson:"description,omitempty"`
	Price        float64     `json:"price" bson:"price"`
	Image        string      `json:"image,omitempty" bson:"image,omitempty"`
	Category     string      `json:"category,omitempty" bson:"category,omitempty"`
	Subcategory  string      `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Type         ProductType `json:"type" bson:"type"`
	Available    bool        `json:"available" bson:"available"`
	Featured     bool        `json:"featured,omitempty" bson:"featured,omitempty"`
	RentalPrice  float64     `json:"rentalPrice,omitempty" bson:"rentalPrice,omitempty"`
	RentalPeriod string      `json:"rentalPeriod,omitempty" bson:"rentalPeriod,omitempty"`

	Specifications []string `json:"specifications,omitempty" bson:"specifications,omitempty"`
}

// Valid reports whether t is a known catalog section.
func (t ProductType) Valid() bool {
	switch t {
	case TypeEquipment, TypeSeed, TypePesticide, TypeTool:
		return true
	}
	return false
}
