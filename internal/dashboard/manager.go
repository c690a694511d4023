package dashboard

import (
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// SLA thresholds for ticket turnaround, in hours.
const (
    SLAWarningHours  = 24
    SLACriticalHours = 48
)

// TicketFilter narrows the manager ticket list.  Zero values disable a
// criterion; Status "all" is the same as "".
type TicketFilter struct {
    StationID uint64
    Status    string
    Search    string
}

// FilterManagerTickets applies station, status and free-text filters.
// Search matches ticket number, plate or issue text, case-insensitively.
func FilterManagerTickets(tickets []model.Ticket, f TicketFilter) []model.Ticket {
    q := strings.ToLower(strings.TrimSpace(f.Search))
    out := make([]model.Ticket, 0, len(tickets))
    for _, t := range tickets {
        if f.StationID != 0 && (t.StationID == nil || *t.StationID != f.StationID) {
            continue
        }
        if f.Status != "" && f.Status != "all" && t.Status != f.Status {
            continue
        }
        if q != "" && !ticketMatches(t, q) {
            continue
        }
        out = append(out, t)
    }
    return out
}

func ticketMatches(t model.Ticket, q string) bool {
    if t.TicketNo != nil && strings.Contains(strings.ToLower(*t.TicketNo), q) {
        return true
    }
    return strings.Contains(strings.ToLower(t.BikeNumberText), q) ||
        strings.Contains(strings.ToLower(t.IssueDescription), q)
}

// TATHours is the ticket's turnaround in hours.  Open tickets are
// measured up to now.  A ticket without a reported time has no TAT.
func TATHours(t model.Ticket, now time.Time) float64 {
    if t.ReportedAt == nil {
        return 0
    }
    end := now
    if t.ClosedAt != nil {
        end = *t.ClosedAt
    }
    return end.Sub(*t.ReportedAt).Hours()
}

// SLAClass buckets a TAT into "", "warning" or "critical".
func SLAClass(hours float64) string {
    switch {
    case hours >= SLACriticalHours:
        return "critical"
    case hours >= SLAWarningHours:
        return "warning"
    }
    return ""
}

// WalkinFilter narrows the manager walk-in list.  From and To bound
// logged_at inclusively; a walk-in without a timestamp is never excluded
// by the range.
type WalkinFilter struct {
    StationID  uint64
    EngineerID uint64
    From       *time.Time
    To         *time.Time
}

// HasRange reports whether a date bound is set.
func (f WalkinFilter) HasRange() bool { return f.From != nil || f.To != nil }

// FilterManagerWalkins applies station, engineer and date-range filters.
func FilterManagerWalkins(walkins []model.Walkin, f WalkinFilter) []model.Walkin {
    out := make([]model.Walkin, 0, len(walkins))
    for _, w := range walkins {
        if f.StationID != 0 && w.StationID != f.StationID {
            continue
        }
        if f.EngineerID != 0 && (w.EngineerID == nil || *w.EngineerID != f.EngineerID) {
            continue
        }
        if !inRange(w.LoggedAt, f.From, f.To) {
            continue
        }
        out = append(out, w)
    }
    return out
}

func inRange(t, from, to *time.Time) bool {
    if t == nil {
        return true
    }
    if from != nil && t.Before(*from) {
        return false
    }
    if to != nil && t.After(*to) {
        return false
    }
    return true
}

// PartsUsage summarises part-usage rows per walk-in: the names of the
// parts used (rows whose part is not in the catalog are left out) and the
// parts cost as unit cost times quantity.
type PartsUsage struct {
    Names map[uint64][]string
    Cost  map[uint64]float64
}

// SummarizeWalkinParts builds PartsUsage from walkin_parts rows and the
// catalog.
func SummarizeWalkinParts(rows []model.WalkinPart, catalog []model.Part) PartsUsage {
    byID := make(map[uint64]model.Part, len(catalog))
    for _, p := range catalog {
        byID[p.ID] = p
    }
    u := PartsUsage{Names: map[uint64][]string{}, Cost: map[uint64]float64{}}
    for _, r := range rows {
        p, ok := byID[r.PartID]
        if ok && p.PartName != "" {
            u.Names[r.WalkinID] = append(u.Names[r.WalkinID], p.PartName)
        }
        u.Cost[r.WalkinID] += p.UnitCost * float64(r.Quantity)
    }
    return u
}

// WalkinKPIs are the headline numbers of the manager walk-in view.
type WalkinKPIs struct {
    Period      string  `json:"period"`
    Count       int     `json:"count"`
    CostCharged float64 `json:"cost_charged"`
    PartsCost   float64 `json:"parts_cost"`
}

// ComputeWalkinKPIs reports today's walk-ins when f carries no date
// range, otherwise the walk-ins inside the range.  Station and engineer
// filters do not apply to the KPIs.
func ComputeWalkinKPIs(walkins []model.Walkin, f WalkinFilter, cost map[uint64]float64, now time.Time) WalkinKPIs {
    k := WalkinKPIs{Period: "today"}
    today := Today(now)
    if f.HasRange() {
        k.Period = "selected"
    }
    for _, w := range walkins {
        if f.HasRange() {
            if !inRange(w.LoggedAt, f.From, f.To) {
                continue
            }
        } else if !hasDatePrefix(w.LoggedAt, today) {
            continue
        }
        k.Count++
        k.CostCharged += w.CostCharged
        k.PartsCost += cost[w.ID]
    }
    return k
}

// InventorySummary totals one station's stock.
type InventorySummary struct {
    TotalSKUs     int     `json:"total_skus"`
    TotalQty      int     `json:"total_qty"`
    TotalValue    float64 `json:"total_value"`
    LowStockCount int     `json:"low_stock_count"`
}

// InventoryRow is an inventory item with the model names it fits.
type InventoryRow struct {
    model.InventoryItem
    ModelNames []string `json:"model_names"`
    Value      float64  `json:"value"`
    LowStock   bool     `json:"low_stock"`
}

// StationInventory groups inventory rows under their station.
type StationInventory struct {
    StationID   uint64           `json:"station_id"`
    StationName string           `json:"station_name"`
    Items       []InventoryRow   `json:"-"`
    Summary     InventorySummary `json:"summary"`
}

// IsLowStock reports whether an item is at or below its reorder level.
// Items without a quantity or reorder level are never low.
func IsLowStock(it model.InventoryItem) bool {
    return it.Quantity != nil && it.ReorderLevel != nil && *it.Quantity <= *it.ReorderLevel
}

// GroupInventory groups items by station (ascending station id), drops
// rows without a station, attaches compatible model names and computes
// each station's summary.  Stations missing from names are labelled by
// their id.
func GroupInventory(items []model.InventoryItem, names map[uint64]string, partModels map[uint64][]string) []StationInventory {
    grouped := map[uint64][]InventoryRow{}
    for _, it := range items {
        if it.StationID == 0 {
            continue
        }
        row := InventoryRow{InventoryItem: it, ModelNames: partModels[it.PartID], LowStock: IsLowStock(it)}
        if row.ModelNames == nil {
            row.ModelNames = []string{}
        }
        if it.Part != nil && it.Quantity != nil {
            row.Value = it.Part.UnitCost * float64(*it.Quantity)
        }
        grouped[it.StationID] = append(grouped[it.StationID], row)
    }
    out := make([]StationInventory, 0, len(grouped))
    for id, rows := range grouped {
        s := StationInventory{StationID: id, StationName: names[id], Items: rows}
        if s.StationName == "" {
            s.StationName = strconv.FormatUint(id, 10)
        }
        s.Summary.TotalSKUs = len(rows)
        for _, r := range rows {
            if r.Quantity != nil {
                s.Summary.TotalQty += *r.Quantity
            }
            s.Summary.TotalValue += r.Value
            if r.LowStock {
                s.Summary.LowStockCount++
            }
        }
        out = append(out, s)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].StationID < out[j].StationID })
    return out
}

// SearchInventory keeps rows whose part name, SKU or compatible model
// names contain q, case-insensitively.
func SearchInventory(rows []InventoryRow, q string) []InventoryRow {
    q = strings.ToLower(strings.TrimSpace(q))
    if q == "" {
        return rows
    }
    out := make([]InventoryRow, 0, len(rows))
    for _, r := range rows {
        var name, sku string
        if r.Part != nil {
            name, sku = strings.ToLower(r.Part.PartName), strings.ToLower(r.Part.SKU)
        }
        models := strings.ToLower(strings.Join(r.ModelNames, ", "))
        if strings.Contains(name, q) || strings.Contains(sku, q) || strings.Contains(models, q) {
            out = append(out, r)
        }
    }
    return out
}

// SearchParts keeps catalog parts whose name or SKU contains q.
func SearchParts(parts []model.Part, q string) []model.Part {
    q = strings.ToLower(strings.TrimSpace(q))
    if q == "" {
        return parts
    }
    out := make([]model.Part, 0, len(parts))
    for _, p := range parts {
        if strings.Contains(strings.ToLower(p.PartName), q) || strings.Contains(strings.ToLower(p.SKU), q) {
            out = append(out, p)
        }
    }
    return out
}
