package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking-reservation/internal/handler"
	"github.com/iliyamo/smart-parking-reservation/internal/middleware"
)

// RegisterAdmin registers reporting and manual-intervention endpoints
// for the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.GET("/revenue", a.Revenue)
	g.GET("/dashboard", a.Dashboard)
	g.PUT("/bookings/:id/validate", a.Validate)
	g.PUT("/bookings/:id/no-show", a.NoShow)
}
