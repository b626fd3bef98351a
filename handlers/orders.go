package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"agrimart/models"
	"agrimart/orders"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

// orderView is an order plus its expected delivery window.
type orderView struct {
	models.Order
	DeliveryFrom string `json:"deliveryFrom,omitempty"`
	DeliveryBy   string `json:"deliveryBy,omitempty"`
}

func withDelivery(o models.Order) orderView {
	v := orderView{Order: o}
	if from, by, ok := orders.DeliveryEstimate(o); ok {
		v.DeliveryFrom = from.Format(orders.DateLayout)
		v.DeliveryBy = by.Format(orders.DateLayout)
	}
	return v
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var info models.CustomerInfo
	if err := utils.DecodeJSON(w, r, &info); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	c := client(r)
	order, err := h.orders.CheckoutOnce(ctx, r.Header.Get("Idempotency-Key"), c.Cart, c.Identity(), info)
	if err != nil {
		var fields orders.FieldErrors
		if errors.As(err, &fields) {
			h.writeErrorStatus(w, r, http.StatusBadRequest, err)
			return
		}
		h.writeError(w, r, err)
		return
	}
	c.Session.RememberEmail(ctx, order.CustomerEmail)
	utils.RespondWithJSON(w, http.StatusCreated, withDelivery(*order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	list, err := h.orders.ListOrders(ctx, client(r).Identity())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		out = append(out, withDelivery(o))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// Receipt renders the PDF receipt of one of the caller's orders.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	list, err := h.orders.ListOrders(ctx, client(r).Identity())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	docID := ps.ByName("id")
	for _, o := range list {
		if o.DocID != docID {
			continue
		}
		var buf bytes.Buffer
		if err := h.receipts.Render(&buf, o); err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, o.ID))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
		return
	}
	h.writeError(w, r, fmt.Errorf("%w: order %s", orders.ErrNotFound, docID))
}
