package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ev-service-portal/internal/handler"
	"github.com/iliyamo/ev-service-portal/internal/middleware"
	"github.com/iliyamo/ev-service-portal/internal/model"
)

// Guard bundles what authenticated groups need.  RateLimit and Cache may
// be nil.
type Guard struct {
	JWTSecret string
	Users     middleware.UserLoader
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// chain authenticates, resolves the view, checks the role and then rate
// limits.  The limiter runs last so its key can use the user id.
func (g Guard) chain(roles ...string) []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(g.JWTSecret),
		middleware.ResolveView(g.Users),
		middleware.RequireRole(roles...),
	}
	if g.RateLimit != nil {
		mws = append(mws, g.RateLimit)
	}
	return mws
}

// cached is chain plus the response cache.  Writes through a cached
// group purge every cached page.
func (g Guard) cached(roles ...string) []echo.MiddlewareFunc {
	mws := g.chain(roles...)
	if g.Cache != nil {
		mws = append(mws, g.Cache)
	}
	return mws
}

// RegisterRoutes registers the unauthenticated probes and the Prometheus
// scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the session endpoints.  Login, refresh and
// logout live under /v1/auth without a token; /v1/me needs one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guard) {
	auth := e.Group("/v1/auth")
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)

	v1 := e.Group("/v1", g.chain(model.RoleManager, model.RoleStation)...)
	v1.GET("/me", a.Me)
}

// RegisterIntake mounts the public ticket form.  Every method reaches the
// handler so it can answer preflight and 405 itself.
func RegisterIntake(e *echo.Echo, h *handler.IntakeHandler, limit echo.MiddlewareFunc) {
	if limit != nil {
		e.Any("/v1/intake/tickets", h.Submit, limit)
		return
	}
	e.Any("/v1/intake/tickets", h.Submit)
}
