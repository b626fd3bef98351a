package handlers

import (
	"fmt"
	"net/http"

	"agrimart/catalog"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := catalog.ParseSection(ps.ByName("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	products, err := h.catalog.List(ctx, t)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := catalog.ParseSection(ps.ByName("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	p, err := h.catalog.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if p.Type != t {
		h.writeError(w, r, fmt.Errorf("%w: %s is not in %s", catalog.ErrNotFound, p.ID, t))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}
