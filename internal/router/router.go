package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/smart-parking-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/smart-parking-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check, public lot browsing and the
// terminal-facing QR endpoints.  Terminals authenticate with the scanned
// token itself, not with a user session.
func RegisterRoutes(e *echo.Echo, p *handler.ParkingHandler, q *handler.QRHandler) {
	e.GET("/healthz", handler.Health)

	e.GET("/v1/parkings", p.List)
	e.GET("/v1/parkings/:id", p.Get)

	e.POST("/v1/qr/scan", q.Scan)
	e.GET("/v1/qr/validate/:token", q.Validate)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Register, login, refresh and logout do not require an existing
	// session; each handler generates or exchanges tokens itself.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token body without a session.
	g.POST("/logout", a.Logout)

	// Protected session endpoints.  The OTP flow needs a logged-in user
	// because the code binds to the account, not to the phone number.
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/send-phone-otp", a.SendPhoneOTP)
	auth.POST("/auth/verify-phone-otp", a.VerifyPhoneOTP)
	// Logout-all for clients holding only an access token.
	auth.POST("/logout", a.Logout)
}
