package routes

import (
	"net/http"

	"agrimart/handlers"
	"agrimart/middleware"
	"agrimart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// RoutesWrapper registers every API route on router.
func RoutesWrapper(router *httprouter.Router, h *handlers.Handler, mw *middleware.Auth, rateLimiter *ratelim.RateLimiter, metrics http.Handler) {
	AddHealthRoutes(router, h, metrics)
	AddAuthRoutes(router, h, mw, rateLimiter)
	AddProductRoutes(router, h)
	AddCartRoutes(router, h, mw)
	AddOrderRoutes(router, h, mw)
	AddBookingRoutes(router, h, mw)
	AddLiveRoutes(router, h, mw)
	AddAdminRoutes(router, h, mw)
}
