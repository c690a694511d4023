package handler

import (
    "context"
    "net/http"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/dashboard"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
    "github.com/iliyamo/ev-service-portal/internal/service"
)

// SnapshotLoader loads tickets, walk-ins, engineers and stations at once.
type SnapshotLoader interface {
    Load(ctx context.Context, stationID uint64) (service.Snapshot, error)
}

// TicketReader lists and loads tickets.
type TicketReader interface {
    List(ctx context.Context, stationID uint64) ([]model.Ticket, error)
    GetByID(ctx context.Context, id uint64) (model.Ticket, error)
}

// EngineerLister lists a station's engineers (0 lists all).
type EngineerLister interface {
    Engineers(ctx context.Context, stationID uint64) ([]model.Engineer, error)
}

// PartFinder resolves the compatible parts of a bike.
type PartFinder interface {
    ForEntity(ctx context.Context, bikeID *uint64, plate string) ([]model.Part, error)
}

// WorkflowRunner runs the closure and walk-in workflows.
type WorkflowRunner interface {
    CloseTicket(ctx context.Context, view model.ViewState, in service.CloseTicketInput) (service.CloseResult, error)
    CreateWalkin(ctx context.Context, view model.ViewState, in service.WalkinInput) (service.WalkinResult, error)
}

// StationHandler serves the station dashboard.  Station users are pinned
// to their own station; managers may pick one with ?station_id.
type StationHandler struct {
    Snapshots SnapshotLoader
    Tickets   TicketReader
    Walkins   service.WalkinLister
    Engineers EngineerLister
    Parts     PartFinder
    Workflows WorkflowRunner
    Now       func() time.Time
}

func (h *StationHandler) now() time.Time {
    if h.Now != nil {
        return h.Now().UTC()
    }
    return time.Now().UTC()
}

// engineerRow is one line of the performance table.
type engineerRow struct {
    EngineerID uint64 `json:"engineer_id"`
    Name       string `json:"name"`
    Tickets    int    `json:"tickets"`
    Walkins    int    `json:"walkins"`
    Total      int    `json:"total"`
}

// performanceRows lists engineers with activity, busiest first.  Engineers
// outside the loaded roster are shown as "Unknown".
func performanceRows(perf map[uint64]*dashboard.EngineerActivity, names map[uint64]string) []engineerRow {
    rows := make([]engineerRow, 0, len(perf))
    for id, a := range perf {
        name, ok := names[id]
        if !ok {
            name = "Unknown"
        }
        rows = append(rows, engineerRow{EngineerID: id, Name: name, Tickets: a.Tickets, Walkins: a.Walkins, Total: a.Total()})
    }
    sort.Slice(rows, func(i, j int) bool {
        if rows[i].Total != rows[j].Total {
            return rows[i].Total > rows[j].Total
        }
        return rows[i].EngineerID < rows[j].EngineerID
    })
    return rows
}

// Dashboard returns the headline metrics and the engineer performance
// table for the scoped station.
func (h *StationHandler) Dashboard(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    sid := scopeStation(c, v)

    ctx, cancel := withTimeout(c)
    defer cancel()
    snap, err := h.Snapshots.Load(ctx, sid)
    if err != nil {
        return loadFailed(c, "dashboard", err)
    }
    m := dashboard.Compute(snap.Tickets, snap.Walkins, h.now())
    return c.JSON(http.StatusOK, echo.Map{
        "station_id":           sid,
        "view":                 v,
        "metrics":              m,
        "engineer_performance": performanceRows(m.Tickets.EngineerPerformance, snap.EngineerNames()),
    })
}

// ListTickets returns one page of tickets: ?date=YYYY-MM-DD filters by
// reported day, ?open_first=true puts open tickets first.
func (h *StationHandler) ListTickets(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    tickets, err := h.Tickets.List(ctx, scopeStation(c, v))
    if err != nil {
        return loadFailed(c, "tickets", err)
    }
    return c.JSON(http.StatusOK, dashboard.ListTickets(tickets, dashboard.TicketQuery{
        Date:      strings.TrimSpace(c.QueryParam("date")),
        OpenFirst: queryBool(c, "open_first"),
        Page:      queryPage(c),
    }))
}

// ListWalkins returns one page of walk-ins, newest first.
func (h *StationHandler) ListWalkins(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    walkins, err := h.Walkins.List(ctx, scopeStation(c, v))
    if err != nil {
        return loadFailed(c, "walk-ins", err)
    }
    return c.JSON(http.StatusOK, dashboard.ListWalkins(walkins, dashboard.WalkinQuery{
        Date: strings.TrimSpace(c.QueryParam("date")),
        Page: queryPage(c),
    }))
}

func (h *StationHandler) ListEngineers(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    engineers, err := h.Engineers.Engineers(ctx, scopeStation(c, v))
    if err != nil {
        return loadFailed(c, "engineers", err)
    }
    return c.JSON(http.StatusOK, engineers)
}

// ticketInScope loads a ticket the caller may see.
func (h *StationHandler) ticketInScope(ctx context.Context, v model.ViewState, id uint64) (model.Ticket, error) {
    t, err := h.Tickets.GetByID(ctx, id)
    if err != nil {
        return t, err
    }
    if !v.IsManager() && (t.StationID == nil || *t.StationID != v.StationID) {
        return t, repository.ErrForbidden
    }
    return t, nil
}

// TicketParts lists the parts that fit the bike behind a ticket.
func (h *StationHandler) TicketParts(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    t, err := h.ticketInScope(ctx, v, id)
    if err != nil {
        return loadFailed(c, "ticket", err)
    }
    parts, err := h.Parts.ForEntity(ctx, t.BikeID, t.BikeNumberText)
    if err != nil {
        return loadFailed(c, "parts", err)
    }
    return c.JSON(http.StatusOK, dashboard.SearchParts(parts, c.QueryParam("q")))
}

// SearchParts lists compatible parts for ?bike_id or ?plate (the walk-in form),
// optionally narrowed by ?q.
func (h *StationHandler) SearchParts(c echo.Context) error {
    if _, err := currentView(c); err != nil {
        return err
    }
    var bikeID *uint64
    if raw := strings.TrimSpace(c.QueryParam("bike_id")); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bike_id"})
        }
        bikeID = &id
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    parts, err := h.Parts.ForEntity(ctx, bikeID, c.QueryParam("plate"))
    if err != nil {
        return loadFailed(c, "parts", err)
    }
    return c.JSON(http.StatusOK, dashboard.SearchParts(parts, c.QueryParam("q")))
}

type closeTicketReq struct {
    EngineerID service.ID              `json:"engineer_id"`
    Cost       service.Amount          `json:"cost_charged"`
    Parts      []service.PartSelection `json:"parts"`
}

// CloseTicket runs the closure workflow for :id.
func (h *StationHandler) CloseTicket(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    var req closeTicketReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "⚠️ Invalid request body", "error": "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Workflows.CloseTicket(ctx, v, service.CloseTicketInput{
        TicketID:   id,
        EngineerID: uint64(req.EngineerID),
        Cost:       req.Cost,
        Parts:      req.Parts,
    })
    if err != nil {
        return writeFailure(c, "close ticket", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":   service.Message("Ticket closed", nil),
        "ticket":    res.Ticket,
        "part_rows": res.PartRows,
    })
}

type walkinReq struct {
    BikeNumberText   string                  `json:"bike_number_text"`
    IssueDescription string                  `json:"issue_description"`
    Cost             service.Amount          `json:"cost_charged"`
    EngineerID       service.ID              `json:"engineer_id"`
    Parts            []service.PartSelection `json:"parts"`
}

// CreateWalkin runs the walk-in workflow.
func (h *StationHandler) CreateWalkin(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    var req walkinReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "⚠️ Invalid request body", "error": "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Workflows.CreateWalkin(ctx, v, service.WalkinInput{
        Plate:      req.BikeNumberText,
        Issue:      req.IssueDescription,
        Cost:       req.Cost,
        EngineerID: uint64(req.EngineerID),
        Parts:      req.Parts,
    })
    if err != nil {
        return writeFailure(c, "create walk-in", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":   service.Message("Walk-in logged", nil),
        "walkin":    res.Walkin,
        "part_rows": res.PartRows,
    })
}
