package dashboard

import (
    "math"
    "reflect"
    "testing"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func TestFilterManagerTickets(t *testing.T) {
    tickets := []model.Ticket{
        {ID: 1, TicketNo: str("TK-001"), StationID: id(1), Status: model.TicketOpen, BikeNumberText: "KA01AB1234", IssueDescription: "Brake noise"},
        {ID: 2, TicketNo: str("TK-002"), StationID: id(2), Status: model.TicketClosed, BikeNumberText: "KA02CD9999", IssueDescription: "Flat tyre"},
        {ID: 3, StationID: nil, Status: model.TicketOpen, BikeNumberText: "MH12XY0001", IssueDescription: "battery drain"},
    }
    cases := []struct {
        name string
        f    TicketFilter
        want []uint64
    }{
        {"no filter", TicketFilter{}, []uint64{1, 2, 3}},
        {"status all", TicketFilter{Status: "all"}, []uint64{1, 2, 3}},
        {"open", TicketFilter{Status: "open"}, []uint64{1, 3}},
        {"station", TicketFilter{StationID: 2}, []uint64{2}},
        {"ticket number", TicketFilter{Search: "tk-00"}, []uint64{1, 2}},
        {"plate", TicketFilter{Search: "mh12"}, []uint64{3}},
        {"issue case-insensitive", TicketFilter{Search: "BATTERY"}, []uint64{3}},
        {"combined", TicketFilter{StationID: 1, Status: "closed"}, []uint64{}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := ids(FilterManagerTickets(tickets, tc.f))
            if !reflect.DeepEqual(got, tc.want) {
                t.Fatalf("got %v, want %v", got, tc.want)
            }
        })
    }
}

func TestTATAndSLA(t *testing.T) {
    now := *at("2024-01-03T12:00")
    open := model.Ticket{Status: model.TicketOpen, ReportedAt: at("2024-01-01T12:00")}
    closed := model.Ticket{Status: model.TicketClosed, ReportedAt: at("2024-01-01T12:00"), ClosedAt: at("2024-01-02T14:00")}

    if h := TATHours(open, now); h != 48 {
        t.Fatalf("open TAT = %v, want 48", h)
    }
    if h := TATHours(closed, now); h != 26 {
        t.Fatalf("closed TAT = %v, want 26", h)
    }
    if h := TATHours(model.Ticket{}, now); h != 0 {
        t.Fatalf("missing reported TAT = %v, want 0", h)
    }

    for _, tc := range []struct {
        hours float64
        want  string
    }{{1, ""}, {23.9, ""}, {24, "warning"}, {47.5, "warning"}, {48, "critical"}, {100, "critical"}} {
        if got := SLAClass(tc.hours); got != tc.want {
            t.Errorf("SLAClass(%v) = %q, want %q", tc.hours, got, tc.want)
        }
    }
}

func TestFilterManagerWalkins(t *testing.T) {
    walkins := []model.Walkin{
        {ID: 1, StationID: 1, EngineerID: id(10), LoggedAt: at("2024-01-01T08:00")},
        {ID: 2, StationID: 1, EngineerID: id(11), LoggedAt: at("2024-01-05T08:00")},
        {ID: 3, StationID: 2, EngineerID: id(10), LoggedAt: at("2024-01-10T08:00")},
        {ID: 4, StationID: 2},
    }
    from, to := at("2024-01-02T00:00"), at("2024-01-10T00:00")

    got := FilterManagerWalkins(walkins, WalkinFilter{From: from, To: to})
    if len(got) != 2 || got[0].ID != 2 || got[1].ID != 4 {
        t.Fatalf("range filter = %+v", got)
    }
    got = FilterManagerWalkins(walkins, WalkinFilter{EngineerID: 10})
    if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
        t.Fatalf("engineer filter = %+v", got)
    }
    got = FilterManagerWalkins(walkins, WalkinFilter{StationID: 2})
    if len(got) != 2 {
        t.Fatalf("station filter = %+v", got)
    }
}

func TestSummarizeWalkinPartsAndKPIs(t *testing.T) {
    catalog := []model.Part{
        {ID: 1, PartName: "Brake pad", UnitCost: 250},
        {ID: 2, PartName: "Tube", UnitCost: 120.5},
    }
    rows := []model.WalkinPart{
        {WalkinID: 1, PartID: 1, Quantity: 2},
        {WalkinID: 1, PartID: 2, Quantity: 1},
        {WalkinID: 2, PartID: 99, Quantity: 3},
    }
    u := SummarizeWalkinParts(rows, catalog)
    if !reflect.DeepEqual(u.Names[1], []string{"Brake pad", "Tube"}) {
        t.Fatalf("names = %v", u.Names[1])
    }
    if len(u.Names[2]) != 0 {
        t.Fatalf("unknown part should have no name, got %v", u.Names[2])
    }
    if u.Cost[1] != 620.5 || u.Cost[2] != 0 {
        t.Fatalf("costs = %v", u.Cost)
    }

    now := *at("2024-01-05T18:00")
    walkins := []model.Walkin{
        {ID: 1, CostCharged: 800, LoggedAt: at("2024-01-05T09:00")},
        {ID: 2, CostCharged: 100, LoggedAt: at("2024-01-04T09:00")},
    }
    k := ComputeWalkinKPIs(walkins, WalkinFilter{}, u.Cost, now)
    if k.Period != "today" || k.Count != 1 || k.CostCharged != 800 || k.PartsCost != 620.5 {
        t.Fatalf("today kpis = %+v", k)
    }
    k = ComputeWalkinKPIs(walkins, WalkinFilter{From: at("2024-01-01T00:00")}, u.Cost, now)
    if k.Period != "selected" || k.Count != 2 || k.CostCharged != 900 {
        t.Fatalf("range kpis = %+v", k)
    }
}

func TestGroupInventory(t *testing.T) {
    pad := &model.Part{ID: 1, PartName: "Brake pad", SKU: "BP-01", UnitCost: 10}
    tube := &model.Part{ID: 2, PartName: "Tube", SKU: "TB-02", UnitCost: 2.5}
    items := []model.InventoryItem{
        {ID: 1, StationID: 2, PartID: 1, Quantity: num(3), ReorderLevel: num(5), Part: pad},
        {ID: 2, StationID: 1, PartID: 2, Quantity: num(10), ReorderLevel: num(2), Part: tube},
        {ID: 3, StationID: 1, PartID: 1, Quantity: num(2), ReorderLevel: nil, Part: pad},
        {ID: 4, StationID: 0, PartID: 1, Quantity: num(1), Part: pad},
    }
    names := map[uint64]string{1: "Central"}
    models := map[uint64][]string{1: {"Falcon", "Comet"}}

    groups := GroupInventory(items, names, models)
    if len(groups) != 2 {
        t.Fatalf("groups = %d, want 2", len(groups))
    }
    s1, s2 := groups[0], groups[1]
    if s1.StationID != 1 || s1.StationName != "Central" || s2.StationName != "2" {
        t.Fatalf("unexpected stations: %+v %+v", s1, s2)
    }
    if s1.Summary.TotalSKUs != 2 || s1.Summary.TotalQty != 12 || s1.Summary.LowStockCount != 0 {
        t.Fatalf("station 1 summary = %+v", s1.Summary)
    }
    if math.Abs(s1.Summary.TotalValue-45) > 1e-9 {
        t.Fatalf("station 1 value = %v, want 45", s1.Summary.TotalValue)
    }
    if s2.Summary.LowStockCount != 1 || !s2.Items[0].LowStock {
        t.Fatalf("station 2 should be low: %+v", s2.Summary)
    }

    if got := SearchInventory(s1.Items, "comet"); len(got) != 1 || got[0].ID != 3 {
        t.Fatalf("model search = %+v", got)
    }
    if got := SearchInventory(s1.Items, "tb-"); len(got) != 1 || got[0].ID != 2 {
        t.Fatalf("sku search = %+v", got)
    }
    if got := SearchInventory(s1.Items, " "); len(got) != 2 {
        t.Fatalf("blank search should keep all, got %d", len(got))
    }
}

func TestIsLowStockNeedsBothValues(t *testing.T) {
    if IsLowStock(model.InventoryItem{Quantity: num(0)}) {
        t.Fatal("no reorder level must not be low")
    }
    if IsLowStock(model.InventoryItem{ReorderLevel: num(3)}) {
        t.Fatal("no quantity must not be low")
    }
    if !IsLowStock(model.InventoryItem{Quantity: num(3), ReorderLevel: num(3)}) {
        t.Fatal("equal to reorder level is low")
    }
}

func TestSearchParts(t *testing.T) {
    parts := []model.Part{{ID: 1, PartName: "Brake pad", SKU: "BP-01"}, {ID: 2, PartName: "Tube", SKU: "TB-02"}}
    if got := SearchParts(parts, "bp"); len(got) != 1 || got[0].ID != 1 {
        t.Fatalf("search = %+v", got)
    }
}
