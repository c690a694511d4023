package handler

import (
    "context"
    "encoding/csv"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/dashboard"
    "github.com/iliyamo/ev-service-portal/internal/legacy"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/service"
)

// CatalogReader reads the parts catalog and part/model compatibility.
type CatalogReader interface {
    Catalog(ctx context.Context) ([]model.Part, error)
    ModelNamesByPart(ctx context.Context) (map[uint64][]string, error)
}

// InventoryLister lists inventory rows (0 lists every station).
type InventoryLister interface {
    List(ctx context.Context, stationID uint64) ([]model.InventoryItem, error)
}

// StockEditor applies a manager's inventory edit.
type StockEditor interface {
    Edit(ctx context.Context, managerID, id uint64, mode, raw string) (model.InventoryItem, error)
}

// LegacyTickets reads the historical automation endpoint.
type LegacyTickets interface {
    Enabled() bool
    GetTickets(ctx context.Context, limit int) (legacy.TicketList, error)
}

// ManagerHandler serves the cross-station manager pages.
type ManagerHandler struct {
    Snapshots SnapshotLoader
    Walkins   service.WalkinLister
    Catalog   CatalogReader
    Inventory InventoryLister
    Stock     StockEditor
    Legacy    LegacyTickets
    Now       func() time.Time
}

func (h *ManagerHandler) now() time.Time {
    if h.Now != nil {
        return h.Now().UTC()
    }
    return time.Now().UTC()
}

// managerTicket is a ticket row annotated for the manager table.
type managerTicket struct {
    model.Ticket
    StationName  string  `json:"station_name"`
    EngineerName string  `json:"engineer_name"`
    TATHours     float64 `json:"tat_hours"`
    SLA          string  `json:"sla"`
}

func (h *ManagerHandler) ticketFilter(c echo.Context) dashboard.TicketFilter {
    return dashboard.TicketFilter{
        StationID: queryUint(c, "station_id"),
        Status:    strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
        Search:    c.QueryParam("q"),
    }
}

// filteredTickets loads every station, applies the query filters and
// annotates the rows, newest first.
func (h *ManagerHandler) filteredTickets(c echo.Context) ([]managerTicket, error) {
    ctx, cancel := withTimeout(c)
    defer cancel()
    snap, err := h.Snapshots.Load(ctx, 0)
    if err != nil {
        return nil, err
    }
    tickets := dashboard.FilterManagerTickets(snap.Tickets, h.ticketFilter(c))
    dashboard.SortTickets(tickets, false)

    stations, engineers := snap.StationNames(), snap.EngineerNames()
    now := h.now()
    rows := make([]managerTicket, 0, len(tickets))
    for _, t := range tickets {
        rows = append(rows, annotateTicket(t, stations, engineers, now))
    }
    return rows, nil
}

// annotateTicket classifies the SLA on the exact TAT; only the displayed
// hours are rounded.
func annotateTicket(t model.Ticket, stations, engineers map[uint64]string, now time.Time) managerTicket {
    r := managerTicket{Ticket: t}
    if t.StationID != nil {
        r.StationName = stations[*t.StationID]
    }
    if t.ClosedBy != nil {
        r.EngineerName = engineers[*t.ClosedBy]
    }
    tat := dashboard.TATHours(t, now)
    r.TATHours = math.Round(tat*10) / 10
    r.SLA = dashboard.SLAClass(tat)
    return r
}

// ListTickets returns a page of annotated tickets.
func (h *ManagerHandler) ListTickets(c echo.Context) error {
    rows, err := h.filteredTickets(c)
    if err != nil {
        return loadFailed(c, "tickets", err)
    }
    return c.JSON(http.StatusOK, dashboard.Paginate(rows, queryPage(c), dashboard.PageSize))
}

var exportHeader = []string{
    "id", "ticket_no", "station", "bike_number", "issue", "status",
    "reported_at", "closed_at", "engineer", "cost_charged", "tat_hours", "sla",
}

// ExportTickets writes every filtered ticket as CSV.
func (h *ManagerHandler) ExportTickets(c echo.Context) error {
    rows, err := h.filteredTickets(c)
    if err != nil {
        return loadFailed(c, "tickets", err)
    }

    resp := c.Response()
    resp.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
    resp.Header().Set(echo.HeaderContentDisposition,
        fmt.Sprintf(`attachment; filename="tickets-%s.csv"`, dashboard.Today(h.now())))
    resp.WriteHeader(http.StatusOK)

    w := csv.NewWriter(resp)
    if err := w.Write(exportHeader); err != nil {
        return err
    }
    for _, r := range rows {
        rec := []string{
            strconv.FormatUint(r.ID, 10),
            deref(r.TicketNo),
            r.StationName,
            r.BikeNumberText,
            r.IssueDescription,
            r.Status,
            timeCell(r.ReportedAt),
            timeCell(r.ClosedAt),
            r.EngineerName,
            "",
            strconv.FormatFloat(r.TATHours, 'f', 1, 64),
            r.SLA,
        }
        if r.CostCharged != nil {
            rec[9] = strconv.FormatFloat(*r.CostCharged, 'f', 2, 64)
        }
        if err := w.Write(rec); err != nil {
            log.Printf("export: write row: %v", err)
            return nil
        }
    }
    w.Flush()
    if err := w.Error(); err != nil {
        log.Printf("export: flush: %v", err)
    }
    return nil
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}

func timeCell(t *time.Time) string {
    if t == nil {
        return ""
    }
    return t.UTC().Format(time.RFC3339)
}

// managerWalkin is a walk-in with the parts it used.
type managerWalkin struct {
    model.Walkin
    StationName  string   `json:"station_name"`
    EngineerName string   `json:"engineer_name"`
    PartsUsed    []string `json:"parts_used"`
    PartsCost    float64  `json:"parts_cost"`
}

// ListWalkins returns filtered walk-ins with part usage and the KPIs.
// ?from and ?to are YYYY-MM-DD dates; both bound logged_at inclusively at
// midnight UTC.
func (h *ManagerHandler) ListWalkins(c echo.Context) error {
    from, err := queryDate(c, "from")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
    }
    to, err := queryDate(c, "to")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
    }
    f := dashboard.WalkinFilter{
        StationID:  queryUint(c, "station_id"),
        EngineerID: queryUint(c, "engineer_id"),
        From:       from,
        To:         to,
    }

    ctx, cancel := withTimeout(c)
    defer cancel()
    snap, err := h.Snapshots.Load(ctx, 0)
    if err != nil {
        return loadFailed(c, "walk-ins", err)
    }
    partRows, err := h.Walkins.ListParts(ctx)
    if err != nil {
        return loadFailed(c, "walk-in parts", err)
    }
    catalog, err := h.Catalog.Catalog(ctx)
    if err != nil {
        return loadFailed(c, "parts catalog", err)
    }
    usage := dashboard.SummarizeWalkinParts(partRows, catalog)
    stations, engineers := snap.StationNames(), snap.EngineerNames()

    filtered := dashboard.FilterManagerWalkins(snap.Walkins, f)
    rows := make([]managerWalkin, 0, len(filtered))
    for _, w := range filtered {
        r := managerWalkin{
            Walkin:      w,
            StationName: stations[w.StationID],
            PartsUsed:   usage.Names[w.ID],
            PartsCost:   usage.Cost[w.ID],
        }
        if r.PartsUsed == nil {
            r.PartsUsed = []string{}
        }
        if w.EngineerID != nil {
            r.EngineerName = engineers[*w.EngineerID]
        }
        rows = append(rows, r)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "kpis": dashboard.ComputeWalkinKPIs(snap.Walkins, f, usage.Cost, h.now()),
        "page": dashboard.Paginate(rows, queryPage(c), dashboard.PageSize),
    })
}

// ListInventory returns every station's stock summary and one page of the
// selected station's rows (?station_id, else the first station), searched
// by ?q.
func (h *ManagerHandler) ListInventory(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    snap, err := h.Snapshots.Load(ctx, 0)
    if err != nil {
        return loadFailed(c, "inventory", err)
    }
    items, err := h.Inventory.List(ctx, 0)
    if err != nil {
        return loadFailed(c, "inventory", err)
    }
    models, err := h.Catalog.ModelNamesByPart(ctx)
    if err != nil {
        return loadFailed(c, "compatibility", err)
    }

    groups := dashboard.GroupInventory(items, snap.StationNames(), models)
    selected := queryUint(c, "station_id")
    var rows []dashboard.InventoryRow
    for i, g := range groups {
        if (selected == 0 && i == 0) || g.StationID == selected {
            selected = g.StationID
            rows = g.Items
            break
        }
    }
    rows = dashboard.SearchInventory(rows, c.QueryParam("q"))
    if rows == nil {
        rows = []dashboard.InventoryRow{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "stations":   groups,
        "station_id": selected,
        "page":       dashboard.Paginate(rows, queryPage(c), dashboard.PageSize),
    })
}

type inventoryEditReq struct {
    Mode  string          `json:"mode"`
    Value json.RawMessage `json:"value"`
}

// EditInventory applies an overwrite or delta edit to one stock row.
func (h *ManagerHandler) EditInventory(c echo.Context) error {
    v, err := currentView(c)
    if err != nil {
        return err
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inventory id"})
    }
    var req inventoryEditReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "⚠️ Invalid request body", "error": "invalid body"})
    }
    raw := strings.Trim(strings.TrimSpace(string(req.Value)), `"`)

    ctx, cancel := withTimeout(c)
    defer cancel()
    it, err := h.Stock.Edit(ctx, v.UserID, id, strings.ToLower(strings.TrimSpace(req.Mode)), raw)
    if err != nil {
        return writeFailure(c, "edit inventory", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": service.Message("Inventory updated successfully", nil),
        "item":    it,
    })
}

// Dashboard returns the metrics across every station.
func (h *ManagerHandler) Dashboard(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    snap, err := h.Snapshots.Load(ctx, 0)
    if err != nil {
        return loadFailed(c, "dashboard", err)
    }
    m := dashboard.Compute(snap.Tickets, snap.Walkins, h.now())
    return c.JSON(http.StatusOK, echo.Map{
        "metrics":              m,
        "stations":             snap.Stations,
        "engineer_performance": performanceRows(m.Tickets.EngineerPerformance, snap.EngineerNames()),
    })
}

// LegacyTickets relays getTickets from the automation endpoint.
func (h *ManagerHandler) LegacyTickets(c echo.Context) error {
    if h.Legacy == nil || !h.Legacy.Enabled() {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "legacy intake not configured"})
    }
    limit := int(queryUint(c, "limit"))
    if limit <= 0 || limit > 500 {
        limit = 100
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    list, err := h.Legacy.GetTickets(ctx, limit)
    if err != nil {
        if errors.Is(err, legacy.ErrDisabled) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "legacy intake not configured"})
        }
        log.Printf("legacy: get tickets: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "legacy endpoint failed"})
    }
    return c.JSON(http.StatusOK, list)
}
