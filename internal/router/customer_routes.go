package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking-reservation/internal/handler"
	"github.com/iliyamo/smart-parking-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers create
// and manage bookings, fetch their QR images and maintain their
// vehicles.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, q *handler.QRHandler, v *handler.VehicleHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List)
	// Registered before /bookings/:id so "active" is not read as an id.
	g.GET("/bookings/active/count", b.ActiveCount)
	g.GET("/bookings/:id", b.Get)
	g.PUT("/bookings/:id/cancel", b.Cancel)
	g.PUT("/bookings/:id/rate", b.Rate)

	g.GET("/qr/generate/:id", q.Generate)

	g.POST("/vehicles", v.Create)
	g.GET("/vehicles", v.List)
	g.PUT("/vehicles/:id", v.Update)
	g.DELETE("/vehicles/:id", v.Delete)
}
