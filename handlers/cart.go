package handlers

import (
	"errors"
	"net/http"

	"agrimart/cart"
	"agrimart/catalog"
	"agrimart/models"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

type cartResponse struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
}

func cartView(c *cart.Cart) cartResponse {
	items := c.Items()
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return cartResponse{Items: items, TotalItems: n, TotalPrice: cart.Total(items)}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, cartView(client(r).Cart))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addItemRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "productId is required")
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	p, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Purchasable(p); err != nil {
		h.writeError(w, r, err)
		return
	}
	c := client(r).Cart
	c.AddItem(p)
	utils.RespondWithJSON(w, http.StatusOK, cartView(c))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req quantityRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, errors.New("quantity is required"))
		return
	}
	c := client(r).Cart
	c.SetQuantity(ps.ByName("id"), *req.Quantity)
	utils.RespondWithJSON(w, http.StatusOK, cartView(c))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	c := client(r).Cart
	c.RemoveItem(ps.ByName("id"))
	utils.RespondWithJSON(w, http.StatusOK, cartView(c))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c := client(r).Cart
	c.Clear()
	utils.RespondWithJSON(w, http.StatusOK, cartView(c))
}
