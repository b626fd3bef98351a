package handlers

import (
	"net/http"

	"agrimart/catalog"
	"agrimart/models"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

type bookingRequest struct {
	EquipmentID string `json:"equipmentId"`
	models.BookingForm
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req bookingRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EquipmentID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "equipmentId is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	equipment, err := h.catalog.Get(ctx, req.EquipmentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Bookable(equipment); err != nil {
		h.writeError(w, r, err)
		return
	}

	booking, err := h.orders.SubmitBooking(ctx, client(r).Identity(), equipment, req.BookingForm)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, booking)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	list, err := h.orders.ListBookings(ctx, client(r).Identity())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}
