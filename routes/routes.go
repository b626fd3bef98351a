package routes

import (
	"net/http"

	"agrimart/handlers"
	"agrimart/middleware"
	"agrimart/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddHealthRoutes(router *httprouter.Router, h *handlers.Handler, metrics http.Handler) {
	router.GET("/health", h.Index)
	router.Handler(http.MethodGet, "/metrics", metrics)
}

func AddAuthRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rateLimiter.Limit(mw.Client(h.Register)))
	router.POST("/api/auth/login", rateLimiter.Limit(mw.Client(h.Login)))
	router.POST("/api/auth/logout", mw.Client(h.Logout))
	router.GET("/api/auth/me", mw.Client(h.Me))
}

func AddProductRoutes(router *httprouter.Router, h *handlers.Handler) {
	router.GET("/api/products/:type", h.ListProducts)
	router.GET("/api/products/:type/:id", h.GetProduct)
}

func AddCartRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth) {
	router.GET("/api/cart", mw.Client(h.GetCart))
	router.POST("/api/cart/items", mw.Client(h.AddCartItem))
	router.PUT("/api/cart/items/:id", mw.Client(h.UpdateCartItem))
	router.DELETE("/api/cart/items/:id", mw.Client(h.RemoveCartItem))
	router.DELETE("/api/cart", mw.Client(h.ClearCart))
}

func AddOrderRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth) {
	router.POST("/api/checkout", mw.Client(h.Checkout))
	router.GET("/api/orders", mw.Client(h.ListOrders))
	router.GET("/api/orders/:id/receipt", mw.Authenticate(h.Receipt))
}

func AddBookingRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth) {
	router.POST("/api/bookings", mw.Client(h.CreateBooking))
	router.GET("/api/bookings", mw.Client(h.ListBookings))
}

func AddLiveRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth) {
	router.GET("/api/live/orders", mw.Client(h.LiveOrders))
	router.GET("/api/live/bookings", mw.Client(h.LiveBookings))
}

func AddAdminRoutes(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth) {
	router.GET("/api/admin/board", mw.RequireAdmin(h.AdminBoard))
	router.POST("/api/admin/:kind/:id/:action", mw.RequireAdmin(h.AdminAction))
	router.GET("/api/admin/receipts/:code", mw.RequireAdmin(h.VerifyReceipt))
}
