package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrimart/admin"
	"agrimart/auth"
	"agrimart/catalog"
	"agrimart/clients"
	"agrimart/docstore"
	"agrimart/middleware"
	"agrimart/orders"
	"agrimart/receipts"
	"agrimart/session"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{orders.FieldErrors{"name": "Name is required"}, http.StatusUnprocessableEntity},
		{orders.ErrEmptyCart, http.StatusBadRequest},
		{receipts.ErrInvalidCode, http.StatusBadRequest},
		{orders.ErrUnauthenticated, http.StatusUnauthorized},
		{admin.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: order x", orders.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: y", catalog.ErrNotFound), http.StatusNotFound},
		{catalog.ErrUnknownType, http.StatusNotFound},
		{fmt.Errorf("%w: 007", catalog.ErrUnavailable), http.StatusConflict},
		{fmt.Errorf("%w: 001", catalog.ErrNotForSale), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: approve", orders.ErrIllegalTransition), http.StatusConflict},
		{orders.ErrConflict, http.StatusConflict},
		{session.ErrAlreadyRegistered, http.StatusConflict},
		{fmt.Errorf("%w: write", orders.ErrPersistence), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	h := New(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)

	rec := httptest.NewRecorder()
	h.writeError(rec, req, orders.FieldErrors{"pincode": "Pincode is required"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Please correct the highlighted fields","fields":{"pincode":"Pincode is required"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.writeError(rec, req, errors.New("driver exploded"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.writeError(rec, req, orders.ErrEmptyCart)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+orders.ErrEmptyCart.Error()+`"}`, rec.Body.String())
}

func TestParseKind(t *testing.T) {
	k, err := parseKind("bookings")
	assert.NoError(t, err)
	assert.Equal(t, orders.KindBooking, k)
	k, err = parseKind("order")
	assert.NoError(t, err)
	assert.Equal(t, orders.KindOrder, k)
	_, err = parseKind("widgets")
	assert.ErrorIs(t, err, errUnknownKind)
}

func TestAdminActionSignedOutMidRequest(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := docstore.NewMemoryStore(nil, logger)
	reg := clients.NewRegistry(auth.NewService(docs, logger), docs, nil, logger)
	defer reg.Close()
	h := New(Deps{Logger: logger})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/doc-1/approve", nil)
	req = req.WithContext(middleware.WithClient(req.Context(), reg.New()))
	rec := httptest.NewRecorder()
	h.AdminAction(rec, req, httprouter.Params{
		{Key: "kind", Value: "orders"},
		{Key: "id", Value: "doc-1"},
		{Key: "action", Value: "approve"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
