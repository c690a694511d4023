package service

import (
    "context"
    "errors"
    "testing"

    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/queue"
    "github.com/iliyamo/ev-service-portal/internal/repository"
)

var (
    managerView = model.ViewState{UserID: 1, Role: model.RoleManager}
    stationView = model.ViewState{UserID: 2, Role: model.RoleStation, StationID: 3}
)

func newWorkflows() (*Workflows, *fakeTickets, *fakeWalkins, *fakePublisher) {
    tickets := &fakeTickets{byID: map[uint64]model.Ticket{
        7: {ID: 7, StationID: u64(3), Status: model.TicketOpen, BikeNumberText: "KA01"},
        8: {ID: 8, StationID: u64(4), Status: model.TicketOpen},
    }}
    walkins := &fakeWalkins{}
    pub := &fakePublisher{}
    w := &Workflows{
        Tickets: tickets,
        Walkins: walkins,
        Bikes: &fakeBikes{byPlate: map[string]model.Bike{
            "KA01": {ID: 11, BikeNumber: "KA01", StationID: u64(3), ModelID: u64(5)},
        }},
        Engineers: fakeEngineers{
            21: {ID: 21, Name: "Ravi", StationID: 3},
            22: {ID: 22, Name: "Asha", StationID: 4},
        },
        Events: pub,
        Now:    fixedNow,
    }
    return w, tickets, walkins, pub
}

func TestCloseTicketSkipsEmptyPartRows(t *testing.T) {
    w, tickets, _, pub := newWorkflows()
    in := CloseTicketInput{
        TicketID:   7,
        EngineerID: 21,
        Cost:       Amount{Value: 450, Set: true},
        Parts:      []PartSelection{{PartID: 9, Quantity: 2}, {}},
    }
    res, err := w.CloseTicket(context.Background(), stationView, in)
    if err != nil {
        t.Fatalf("CloseTicket: %v", err)
    }
    if len(tickets.parts) != 1 || tickets.parts[0].PartID != 9 || tickets.parts[0].Quantity != 2 {
        t.Fatalf("part rows = %+v, want one row for part 9", tickets.parts)
    }
    if res.PartRows != 1 {
        t.Errorf("PartRows = %d, want 1", res.PartRows)
    }
    got := tickets.byID[7]
    if got.Status != model.TicketClosed || *got.ClosedBy != 21 || *got.CostCharged != 450 {
        t.Errorf("stored ticket = %+v", got)
    }
    if !got.ClosedAt.Equal(fixedNow()) {
        t.Errorf("closed_at = %v, want %v", got.ClosedAt, fixedNow())
    }
    if len(pub.events) != 1 || pub.events[0].Type != queue.TicketClosed || pub.events[0].StationID != 3 {
        t.Errorf("events = %+v", pub.events)
    }
}

func TestCloseTicketDefaultsCostAndQuantity(t *testing.T) {
    w, tickets, _, _ := newWorkflows()
    res, err := w.CloseTicket(context.Background(), managerView, CloseTicketInput{
        TicketID: 8, EngineerID: 22, Parts: []PartSelection{{PartID: 4}},
    })
    if err != nil {
        t.Fatalf("CloseTicket: %v", err)
    }
    if *res.Ticket.CostCharged != 0 {
        t.Errorf("cost = %v, want 0", *res.Ticket.CostCharged)
    }
    if tickets.parts[0].Quantity != 1 {
        t.Errorf("quantity = %d, want 1", tickets.parts[0].Quantity)
    }
}

func TestCloseTicketRequiresEngineer(t *testing.T) {
    w, tickets, _, pub := newWorkflows()
    _, err := w.CloseTicket(context.Background(), managerView, CloseTicketInput{TicketID: 7, Parts: []PartSelection{{PartID: 9}}})
    if !errors.Is(err, ErrValidation) {
        t.Fatalf("err = %v, want validation error", err)
    }
    if len(tickets.parts) != 0 || len(tickets.closed) != 0 || len(pub.events) != 0 {
        t.Error("validation failure must not write")
    }
}

func TestCloseTicketStationScope(t *testing.T) {
    w, tickets, _, _ := newWorkflows()
    _, err := w.CloseTicket(context.Background(), stationView, CloseTicketInput{TicketID: 8, EngineerID: 21})
    if !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
    if len(tickets.closed) != 0 {
        t.Error("forbidden close must not write")
    }
}

func TestCloseTicketNotFound(t *testing.T) {
    w, _, _, _ := newWorkflows()
    _, err := w.CloseTicket(context.Background(), managerView, CloseTicketInput{TicketID: 99, EngineerID: 21})
    if !errors.Is(err, repository.ErrTicketNotFound) {
        t.Fatalf("err = %v, want ErrTicketNotFound", err)
    }
}

func TestCloseTicketPartFailureStopsBeforeClose(t *testing.T) {
    w, tickets, _, _ := newWorkflows()
    tickets.partErr = errBoom
    _, err := w.CloseTicket(context.Background(), managerView, CloseTicketInput{
        TicketID: 7, EngineerID: 21, Parts: []PartSelection{{PartID: 1}},
    })
    if !errors.Is(err, errBoom) {
        t.Fatalf("err = %v, want wrapped errBoom", err)
    }
    if len(tickets.closed) != 0 {
        t.Error("ticket closed after part insert failed")
    }
}

func TestCloseTicketIgnoresPublishFailure(t *testing.T) {
    w, _, _, pub := newWorkflows()
    pub.err = errBoom
    if _, err := w.CloseTicket(context.Background(), managerView, CloseTicketInput{TicketID: 7, EngineerID: 21}); err != nil {
        t.Fatalf("CloseTicket: %v", err)
    }
}

func TestCloseTicketEngineerChecks(t *testing.T) {
    cases := []struct {
        name     string
        engineer uint64
        want     error
    }{
        {"other station", 22, repository.ErrForbidden},
        {"unknown", 999, ErrValidation},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            w, tickets, _, pub := newWorkflows()
            _, err := w.CloseTicket(context.Background(), stationView, CloseTicketInput{
                TicketID: 7, EngineerID: tc.engineer, Parts: []PartSelection{{PartID: 9}},
            })
            if !errors.Is(err, tc.want) {
                t.Fatalf("err = %v, want %v", err, tc.want)
            }
            if len(tickets.parts) != 0 || len(tickets.closed) != 0 || len(pub.events) != 0 {
                t.Error("rejected engineer must not write")
            }
        })
    }
}

func TestCreateWalkinUsesBikeStation(t *testing.T) {
    w, _, walkins, pub := newWorkflows()
    res, err := w.CreateWalkin(context.Background(), managerView, WalkinInput{
        Plate:      " KA01 ",
        Issue:      "brake noise",
        Cost:       Amount{Value: 300, Set: true},
        EngineerID: 22,
        Parts:      []PartSelection{{PartID: 2, Quantity: 3}, {}, {PartID: 5, Quantity: 0}},
    })
    if err != nil {
        t.Fatalf("CreateWalkin: %v", err)
    }
    if len(walkins.created) != 1 {
        t.Fatalf("walk-ins written = %d, want 1", len(walkins.created))
    }
    wk := walkins.created[0]
    if wk.StationID != 3 || *wk.ModelID != 5 || *wk.BikeID != 11 || wk.BikeNumberText != "KA01" {
        t.Errorf("walk-in = %+v", wk)
    }
    if res.PartRows != 2 || len(walkins.parts) != 2 {
        t.Fatalf("part rows = %d/%d, want 2", res.PartRows, len(walkins.parts))
    }
    for _, p := range walkins.parts {
        if p.WalkinID != res.Walkin.ID {
            t.Errorf("part row walkin id = %d, want %d", p.WalkinID, res.Walkin.ID)
        }
    }
    if walkins.parts[1].Quantity != 1 {
        t.Errorf("zero quantity stored as %d, want 1", walkins.parts[1].Quantity)
    }
    if len(pub.events) != 1 || pub.events[0].Type != queue.WalkinLogged {
        t.Errorf("events = %+v", pub.events)
    }
}

func TestCreateWalkinFallsBackToEngineerStation(t *testing.T) {
    w, _, walkins, _ := newWorkflows()
    _, err := w.CreateWalkin(context.Background(), stationView, WalkinInput{
        Plate: "UNKNOWN", Issue: "flat", Cost: Amount{Value: 0, Set: true}, EngineerID: 21,
    })
    if err != nil {
        t.Fatalf("CreateWalkin: %v", err)
    }
    if got := walkins.created[0]; got.StationID != 3 || got.BikeID != nil || got.ModelID != nil {
        t.Errorf("walk-in = %+v", got)
    }
}

func TestCreateWalkinValidation(t *testing.T) {
    cases := map[string]WalkinInput{
        "no plate":      {Issue: "x", Cost: Amount{Set: true}, EngineerID: 21},
        "blank issue":   {Plate: "KA01", Issue: "  ", Cost: Amount{Set: true}, EngineerID: 21},
        "no cost":       {Plate: "KA01", Issue: "x", EngineerID: 21},
        "no engineer":   {Plate: "KA01", Issue: "x", Cost: Amount{Set: true}},
        "bad engineer":  {Plate: "UNKNOWN", Issue: "x", Cost: Amount{Set: true}, EngineerID: 99},
        "negative cost": {Plate: "KA01", Issue: "x", Cost: Amount{Value: -500, Set: true}, EngineerID: 21},
    }
    for name, in := range cases {
        t.Run(name, func(t *testing.T) {
            w, _, walkins, pub := newWorkflows()
            _, err := w.CreateWalkin(context.Background(), managerView, in)
            if !errors.Is(err, ErrValidation) {
                t.Fatalf("err = %v, want validation error", err)
            }
            if len(walkins.created) != 0 || len(walkins.parts) != 0 || len(pub.events) != 0 {
                t.Error("validation failure must not write")
            }
        })
    }
}

func TestCreateWalkinUnresolvableStation(t *testing.T) {
    w, _, walkins, _ := newWorkflows()
    w.Engineers = fakeEngineers{30: {ID: 30, Name: "Floating"}}
    _, err := w.CreateWalkin(context.Background(), managerView, WalkinInput{
        Plate: "UNKNOWN", Issue: "x", Cost: Amount{Value: 10, Set: true}, EngineerID: 30,
        Parts: []PartSelection{{PartID: 1}},
    })
    if !errors.Is(err, ErrValidation) {
        t.Fatalf("err = %v, want validation error", err)
    }
    if len(walkins.created) != 0 || len(walkins.parts) != 0 {
        t.Error("nothing may be written when the station is unknown")
    }
}

func TestCreateWalkinOtherStationEngineer(t *testing.T) {
    w, _, walkins, _ := newWorkflows()
    _, err := w.CreateWalkin(context.Background(), stationView, WalkinInput{
        Plate: "KA01", Issue: "x", Cost: Amount{Value: 1, Set: true}, EngineerID: 22,
    })
    if !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
    if len(walkins.created) != 0 {
        t.Error("forbidden walk-in written")
    }
}

func TestCreateWalkinInsertFailure(t *testing.T) {
    w, _, walkins, pub := newWorkflows()
    walkins.err = errBoom
    _, err := w.CreateWalkin(context.Background(), managerView, WalkinInput{
        Plate: "KA01", Issue: "x", Cost: Amount{Value: 1, Set: true}, EngineerID: 21,
        Parts: []PartSelection{{PartID: 1}},
    })
    if !errors.Is(err, errBoom) {
        t.Fatalf("err = %v, want wrapped errBoom", err)
    }
    if len(walkins.parts) != 0 || len(pub.events) != 0 {
        t.Error("no part rows or events after a failed insert")
    }
}
