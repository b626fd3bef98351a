package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"agrimart/orders"
	"agrimart/receipts"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

var errUnknownKind = errors.New("unknown record kind")

func parseKind(s string) (orders.Kind, error) {
	switch s {
	case "order", "orders":
		return orders.KindOrder, nil
	case "booking", "bookings":
		return orders.KindBooking, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownKind, s)
	}
}

func (h *Handler) AdminBoard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	board, err := h.reviewer.Board(ctx, client(r).Identity())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, board)
}

func (h *Handler) AdminAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, err := parseKind(ps.ByName("kind"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	actor := client(r).Identity()
	if actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Please log in to continue")
		return
	}
	docID := ps.ByName("id")
	status, err := h.reviewer.Apply(ctx, kind, docID, ps.ByName("action"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("admin action applied",
		"admin", actor.ID,
		"kind", kind,
		"docId", docID,
		"action", ps.ByName("action"),
		"status", status,
	)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"id": docID, "kind": kind, "status": status})
}

// VerifyReceipt checks a scanned receipt code and returns the order it was
// printed for, as stored now.
func (h *Handler) VerifyReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID, docID, err := h.receipts.Verify(ps.ByName("code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	o, err := h.orders.Order(ctx, docID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if o.ID != orderID {
		h.writeError(w, r, fmt.Errorf("%w: code names order %s", receipts.ErrInvalidCode, orderID))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, withDelivery(*o))
}
