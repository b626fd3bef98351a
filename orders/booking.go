package orders

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"agrimart/docstore"
	"agrimart/models"
)

// DateLayout is the calendar-day format used for booking dates.
const DateLayout = "2006-01-02"

// MaxBookingDays bounds a single booking's date range.
const MaxBookingDays = 366

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ValidateBooking checks every field independently and reports one message
// per invalid field. It returns nil when the form is valid.
func ValidateBooking(f models.BookingForm) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required"
	}

	switch {
	case strings.TrimSpace(f.Email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "Please enter a valid email"
	}

	switch {
	case strings.TrimSpace(f.Phone) == "":
		errs["phone"] = "Phone number is required"
	case len(nonDigits.ReplaceAllString(f.Phone, "")) != 10:
		errs["phone"] = "Please enter a valid 10-digit phone number"
	}

	start, startErr := time.Parse(DateLayout, strings.TrimSpace(f.StartDate))
	switch {
	case strings.TrimSpace(f.StartDate) == "":
		errs["date"] = "Start date is required"
	case startErr != nil:
		errs["date"] = "Please enter a valid start date"
	}

	end, endErr := time.Parse(DateLayout, strings.TrimSpace(f.EndDate))
	switch {
	case strings.TrimSpace(f.EndDate) == "":
		errs["endDate"] = "End date is required"
	case endErr != nil:
		errs["endDate"] = "Please enter a valid end date"
	case startErr == nil && end.Before(start):
		errs["endDate"] = "End date must be after start date"
	case startErr == nil && int(end.Sub(start).Hours()/24)+1 > MaxBookingDays:
		errs["endDate"] = fmt.Sprintf("Bookings cannot exceed %d days", MaxBookingDays)
	}

	if strings.TrimSpace(f.Address) == "" {
		errs["address"] = "Address is required"
	}

	switch {
	case strings.TrimSpace(f.Pincode) == "":
		errs["pincode"] = "Pincode is required"
	case len(nonDigits.ReplaceAllString(f.Pincode, "")) != 6:
		errs["pincode"] = "Please enter a valid 6-digit pincode"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ExpandDates returns one YYYY-MM-DD entry per calendar day from start to
// end inclusive.
func ExpandDates(start, end time.Time) []string {
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// SubmitBooking validates the form and stores a pending booking for the
// equipment. The identity is optional.
func (s *Service) SubmitBooking(ctx context.Context, id *models.Identity, equipment models.Product, form models.BookingForm) (*models.Booking, error) {
	if errs := ValidateBooking(form); errs != nil {
		return nil, errs
	}

	start, _ := time.Parse(DateLayout, strings.TrimSpace(form.StartDate))
	end, _ := time.Parse(DateLayout, strings.TrimSpace(form.EndDate))
	now := s.now().UTC()

	rentalPrice := equipment.RentalPrice
	if rentalPrice == 0 {
		rentalPrice = equipment.Price
	}
	booking := &models.Booking{
		EquipmentID:   equipment.ID,
		EquipmentName: equipment.Name,
		Image:         equipment.Image,
		RentalPrice:   rentalPrice,
		RentalPeriod:  equipment.RentalPeriod,
		Dates:         ExpandDates(start, end),
		Notes:         strings.TrimSpace(form.Notes),
		CustomerName:  strings.TrimSpace(form.Name),
		CustomerEmail: normalizeEmail(form.Email),
		CustomerPhone: strings.TrimSpace(form.Phone),
		Address:       strings.TrimSpace(form.Address),
		Pincode:       strings.TrimSpace(form.Pincode),
		Status:        models.StatusPending,
		CreatedAt:     now.Format(time.RFC3339),
	}
	if id != nil {
		booking.UserID = id.ID
	}

	doc, err := models.Document(booking)
	if err != nil {
		return nil, fmt.Errorf("%w: encode booking: %v", ErrPersistence, err)
	}
	docID, err := s.docs.Create(ctx, docstore.Bookings, docstore.Compact(doc))
	if err != nil {
		s.logger.Error("booking write failed", "equipmentId", equipment.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	booking.DocID = docID

	s.metrics.BookingCreated()
	s.logger.Info("booking created", "docId", docID, "equipmentId", equipment.ID, "days", len(booking.Dates))
	s.publish(ctx, docID, BookingCreatedEvent{
		Type:          EventBookingCreated,
		DocID:         docID,
		EquipmentID:   equipment.ID,
		UserID:        booking.UserID,
		CustomerEmail: booking.CustomerEmail,
		Dates:         booking.Dates,
		Timestamp:     now,
	})
	return booking, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
