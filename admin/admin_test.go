package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"agrimart/cart"
	"agrimart/docstore"
	"agrimart/metrics"
	"agrimart/models"
	"agrimart/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActions(t *testing.T) {
	names := func(as []Action) []string {
		out := []string{}
		for _, a := range as {
			out = append(out, a.Name)
		}
		return out
	}
	assert.Equal(t, []string{"approve", "cancel"}, names(Actions(models.StatusPending)))
	assert.Equal(t, []string{"complete"}, names(Actions(models.StatusProcessing)))
	assert.Empty(t, Actions(models.StatusCompleted))
	assert.Empty(t, Actions(models.StatusCancelled))

	for _, s := range models.Statuses {
		for _, a := range Actions(s) {
			assert.True(t, models.CanTransition(s, a.Target), "%s offers %s", s, a.Name)
		}
	}
}

func TestFormatIfValid(t *testing.T) {
	assert.Equal(t, "Mar 5, 2024, 14:07", FormatIfValid("2024-03-05T14:07:00Z", DateTimeLayout))
	assert.Equal(t, "Mar 5, 2024", FormatIfValid("2024-03-05", DayLayout))
	assert.Equal(t, "Mar 5, 2024", FormatIfValid("2024-03-05T14:07:00.123Z", DayLayout))
	assert.Equal(t, Placeholder, FormatIfValid("", DayLayout))
	assert.Equal(t, Placeholder, FormatIfValid("yesterday", DayLayout))
}

func TestFormatBookingDates(t *testing.T) {
	assert.Equal(t, Placeholder, FormatBookingDates(nil))
	assert.Equal(t, "Jan 1, 2024", FormatBookingDates([]string{"2024-01-01"}))
	assert.Equal(t, "Jan 1, 2024 - Jan 3, 2024", FormatBookingDates([]string{"2024-01-03", "2024-01-01", "2024-01-02"}))
	assert.Equal(t, "- - Jan 3, 2024", FormatBookingDates([]string{"2024-01-03", "bad"}))
}

func TestGroupOrders(t *testing.T) {
	groups := GroupOrders([]models.Order{
		{DocID: "a", Status: models.StatusPending, Total: 10, OrderDate: "2024-03-05T14:07:00Z", Items: []models.CartItem{{ID: "x", Quantity: 1}}},
		{DocID: "b", Status: models.StatusCompleted, TotalPrice: 25, Total: 20, Date: "garbage", CustomerName: "Ravi"},
	})

	require.Len(t, groups, 4)
	require.Len(t, groups[models.StatusPending], 1)
	row := groups[models.StatusPending][0]
	assert.Equal(t, 10.0, row.Total)
	assert.Equal(t, "Mar 5, 2024, 14:07", row.Date)
	assert.Equal(t, AnonymousCustomer, row.Customer)
	assert.Equal(t, 1, row.ItemCount)
	assert.Len(t, row.Actions, 2)

	done := groups[models.StatusCompleted][0]
	assert.Equal(t, 25.0, done.Total)
	assert.Equal(t, Placeholder, done.Date)
	assert.Equal(t, "Ravi", done.Customer)
	assert.Empty(t, done.Actions)
	assert.Empty(t, groups[models.StatusCancelled])
}

func TestGroupBookings(t *testing.T) {
	groups := GroupBookings([]models.Booking{
		{DocID: "b1", Status: models.StatusProcessing, CustomerName: "Asha", Dates: []string{"2024-01-02", "2024-01-01"}, CreatedAt: "2023-12-30T08:00:00Z"},
	})
	row := groups[models.StatusProcessing][0]
	assert.Equal(t, "Jan 1, 2024 - Jan 2, 2024", row.Dates)
	assert.Equal(t, "Dec 30, 2023", row.Created)
	assert.Len(t, row.Actions, 1)
}

func TestReviewer(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := orders.NewService(docstore.NewMemoryStore(nil, logger), nil, metrics.New(), logger)
	r := NewReviewer(svc)

	customer := &models.Identity{ID: "u1", Email: "asha@farm.in", Role: models.RoleFarmer}
	admin := &models.Identity{ID: "a1", Email: "admin@farm.in", Role: models.RoleAdmin}

	c := cart.New()
	c.AddItem(models.Product{ID: "s1", Name: "Seeds", Price: 50})
	order, err := svc.Checkout(ctx, c, customer, models.CustomerInfo{Name: "Asha", Email: "asha@farm.in", Phone: "9876543210"})
	require.NoError(t, err)

	_, err = r.Apply(ctx, orders.KindOrder, order.DocID, "complete")
	assert.ErrorIs(t, err, orders.ErrIllegalTransition)

	next, err := r.Apply(ctx, orders.KindOrder, order.DocID, "approve")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, next)

	_, err = r.Apply(ctx, orders.KindOrder, order.DocID, "cancel")
	assert.ErrorIs(t, err, orders.ErrIllegalTransition)

	next, err = r.Apply(ctx, orders.KindOrder, order.DocID, "complete")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, next)

	_, err = r.Apply(ctx, orders.KindBooking, "missing", "approve")
	assert.ErrorIs(t, err, orders.ErrNotFound)

	board, err := r.Board(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, board.Orders[models.StatusCompleted], 1)

	_, err = r.Board(ctx, customer)
	assert.ErrorIs(t, err, ErrForbidden)
}
