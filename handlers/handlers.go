// Package handlers serves the storefront API over httprouter.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"agrimart/admin"
	"agrimart/auth"
	"agrimart/catalog"
	"agrimart/clients"
	"agrimart/hub"
	"agrimart/metrics"
	"agrimart/middleware"
	"agrimart/orders"
	"agrimart/receipts"
	"agrimart/session"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

// requestTimeout bounds store work done on behalf of one request.
const requestTimeout = 10 * time.Second

type Deps struct {
	Tokens   *auth.Tokens
	Catalog  *catalog.Catalog
	Orders   *orders.Service
	Reviewer *admin.Reviewer
	Receipts *receipts.Renderer
	Metrics  *metrics.Metrics
	Hub      *hub.Hub
	Logger   *slog.Logger
}

type Handler struct {
	tokens   *auth.Tokens
	catalog  *catalog.Catalog
	orders   *orders.Service
	reviewer *admin.Reviewer
	receipts *receipts.Renderer
	metrics  *metrics.Metrics
	hub      *hub.Hub
	logger   *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		tokens:   d.Tokens,
		catalog:  d.Catalog,
		orders:   d.Orders,
		reviewer: d.Reviewer,
		receipts: d.Receipts,
		metrics:  d.Metrics,
		hub:      d.Hub,
		logger:   d.Logger,
	}
}

func client(r *http.Request) *clients.Client {
	return middleware.ClientFrom(r.Context())
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// errorBody is the JSON error answer. Fields is set for validation failures.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fields orders.FieldErrors
	switch {
	case errors.As(err, &fields),
		errors.Is(err, catalog.ErrNotForSale):
		return http.StatusUnprocessableEntity
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, receipts.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, admin.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, orders.ErrConflict),
		errors.Is(err, catalog.ErrUnavailable),
		errors.Is(err, session.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, orders.ErrPersistence):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers err as JSON with the status statusFor picks.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorStatus(w, r, statusFor(err), err)
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorBody{Error: err.Error()}
	var fields orders.FieldErrors
	if errors.As(err, &fields) {
		body.Error = "Please correct the highlighted fields"
		body.Fields = fields
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			body.Error = "Internal server error"
		}
	}
	utils.RespondWithJSON(w, status, body)
}

// Index is a simple health check handler.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok", "liveConnections": h.hub.Len()})
}
