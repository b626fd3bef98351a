package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"agrimart/models"
	"agrimart/orders"

	"github.com/julienschmidt/httprouter"
)

// livePush is one websocket frame of a live view.
type livePush struct {
	Type  string `json:"type"`
	Items any    `json:"items"`
}

func (h *Handler) LiveOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.serveLive(w, r, func(send func(livePush)) *orders.LiveView {
		return h.orders.OrdersView(func(list []models.Order) {
			if list == nil {
				list = []models.Order{}
			}
			send(livePush{Type: "orders", Items: list})
		})
	})
}

func (h *Handler) LiveBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.serveLive(w, r, func(send func(livePush)) *orders.LiveView {
		return h.orders.BookingsView(func(list []models.Booking) {
			if list == nil {
				list = []models.Booking{}
			}
			send(livePush{Type: "bookings", Items: list})
		})
	})
}

// serveLive upgrades the request and keeps a live view pushing to it until
// the peer leaves or the hub stops.
func (h *Handler) serveLive(w http.ResponseWriter, r *http.Request, build func(send func(livePush)) *orders.LiveView) {
	c := client(r)
	conn, err := h.hub.Upgrade(w, r, c.ID)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", c.ID, "error", err)
		return
	}

	send := func(p livePush) {
		data, err := json.Marshal(p)
		if err != nil {
			h.logger.Error("encode live push", "error", err)
			return
		}
		h.hub.Deliver(conn, data)
	}

	// The request context ends when this handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	stop, err := c.Watch(ctx, build(send))
	if err != nil {
		h.logger.Error("start live view", "session", c.ID, "error", err)
		cancel()
		h.hub.Start(conn, nil)
		h.hub.Unregister(conn)
		return
	}
	h.hub.Start(conn, func() {
		stop()
		cancel()
	})
}
