package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/handler"
	"github.com/fatora-app/fatora-server/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// do not belong to a feature area.  Currently it exposes only a health
// check, used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register and
// login are open; the current-user read and logout require a valid
// bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, tokens middleware.TokenValidator) {
	auth := middleware.BearerAuth(jwtSecret, tokens)

	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.GET("/user", a.Me, auth)
	e.POST("/logout", a.Logout, auth)
}

// RegisterCatalog registers the product endpoints.  The barcode lookup
// is a public read (scanning works before login) and goes through the
// Redis lookup cache; creating a product requires a bearer token.  The
// optional middlewares may be pass-throughs when Redis is unavailable.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, jwtSecret string, tokens middleware.TokenValidator, lookupCache echo.MiddlewareFunc) {
	auth := middleware.BearerAuth(jwtSecret, tokens)

	e.GET("/products/mine", p.ListMine, auth)
	e.GET("/products/:barcode", p.Lookup, lookupCache)
	e.POST("/products", p.Create, auth)
}
