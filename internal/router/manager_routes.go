package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ev-service-portal/internal/handler"
	"github.com/iliyamo/ev-service-portal/internal/model"
)

// RegisterManager registers the cross-station manager pages under
// /v1/manager.
func RegisterManager(e *echo.Echo, h *handler.ManagerHandler, a *handler.AuthHandler, g Guard) {
	m := e.Group("/v1/manager", g.cached(model.RoleManager)...)

	m.GET("/dashboard", h.Dashboard)
	m.GET("/tickets", h.ListTickets)
	m.GET("/tickets/export", h.ExportTickets)
	m.GET("/walkins", h.ListWalkins)
	m.GET("/inventory", h.ListInventory)
	m.PATCH("/inventory/:id", h.EditInventory)
	m.GET("/legacy/tickets", h.LegacyTickets)

	// account provisioning
	m.POST("/users", a.CreateUser)
}
