package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking-reservation/internal/handler"
	"github.com/iliyamo/smart-parking-reservation/internal/middleware"
)

// RegisterOwner registers lot-management endpoints for the OWNER role.
// Public browsing of lots lives on the public router; these routes
// mutate lots and list the owner's own inventory including inactive
// entries.
func RegisterOwner(e *echo.Echo, p *handler.ParkingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	g.POST("/parkings", p.Create)
	g.PUT("/parkings/:id", p.Update)
	g.DELETE("/parkings/:id", p.Delete)
	g.GET("/owner/parkings", p.ListMine)
}
