package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ev-service-portal/internal/handler"
	"github.com/iliyamo/ev-service-portal/internal/model"
)

// RegisterStation registers the station dashboard under /v1/station.
// Station staff are pinned to their station; managers may also call these
// routes and choose a station with ?station_id.
func RegisterStation(e *echo.Echo, h *handler.StationHandler, g Guard) {
	s := e.Group("/v1/station", g.cached(model.RoleStation, model.RoleManager)...)

	s.GET("/dashboard", h.Dashboard)
	s.GET("/tickets", h.ListTickets)
	s.GET("/tickets/:id/parts", h.TicketParts)
	s.POST("/tickets/:id/close", h.CloseTicket)
	s.GET("/walkins", h.ListWalkins)
	s.POST("/walkins", h.CreateWalkin)
	s.GET("/engineers", h.ListEngineers)
	s.GET("/parts", h.SearchParts)
}
