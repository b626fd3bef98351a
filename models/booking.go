package models

// Booking is an equipment rental reservation. Dates holds one YYYY-MM-DD
// entry per calendar day from start to end inclusive.
type Booking struct {
	DocID         string   `json:"docId,omitempty" bson:"-"`
	EquipmentID   string   `json:"equipmentId" bson:"equipmentId"`
	EquipmentName string   `json:"equipmentName" bson:"equipmentName"`
	Image         string   `json:"image,omitempty" bson:"image,omitempty"`
	RentalPrice   float64  `json:"rentalPrice,omitempty" bson:"rentalPrice,omitempty"`
	RentalPeriod  string   `json:"rentalPeriod,omitempty" bson:"rentalPeriod,omitempty"`
	Dates         []string `json:"dates" bson:"dates"`
	Notes         string   `json:"notes,omitempty" bson:"notes,omitempty"`
	UserID        string   `json:"userId,omitempty" bson:"userId,omitempty"`
	CustomerName  string   `json:"customerName" bson:"customerName"`
	CustomerEmail string   `json:"customerEmail" bson:"customerEmail"`
	CustomerPhone string   `json:"customerPhone" bson:"customerPhone"`
	Address       string   `json:"address" bson:"address"`
	Pincode       string   `json:"pincode" bson:"pincode"`
	Status        Status   `json:"status" bson:"status"`
	CreatedAt     string   `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// BookingForm is the raw booking submission. Dates are YYYY-MM-DD.
type BookingForm struct {
	Name      string `json:"customerName"`
	Email     string `json:"customerEmail"`
	Phone     string `json:"customerPhone"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Address   string `json:"address"`
	Pincode   string `json:"pincode"`
	Notes     string `json:"notes"`
}
