package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/metrics"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/queue"
    "github.com/iliyamo/ev-service-portal/internal/repository"
)

// TicketWriter is the ticket side of the closure workflow.
type TicketWriter interface {
    GetByID(ctx context.Context, id uint64) (model.Ticket, error)
    InsertPart(ctx context.Context, p model.TicketPart) error
    Close(ctx context.Context, id, engineerID uint64, cost float64, at time.Time) error
}

// WalkinWriter stores walk-ins and their part rows.
type WalkinWriter interface {
    Create(ctx context.Context, w *model.Walkin) error
    InsertPart(ctx context.Context, p model.WalkinPart) error
}

// EngineerFinder loads one engineer; misses return
// repository.ErrEngineerNotFound.
type EngineerFinder interface {
    Engineer(ctx context.Context, id uint64) (model.Engineer, error)
}

// Workflows runs ticket closure and walk-in creation.  Each is a fixed
// sequence of independent writes with no transaction around them: a
// failure part way leaves the earlier writes in place.
type Workflows struct {
    Tickets   TicketWriter
    Walkins   WalkinWriter
    Bikes     BikeFinder
    Engineers EngineerFinder
    Events    Publisher
    Metrics   *metrics.Recorder
    Now       func() time.Time
}

func (w *Workflows) now() time.Time {
    if w.Now != nil {
        return w.Now().UTC()
    }
    return time.Now().UTC()
}

// CloseTicketInput is the closure form.
type CloseTicketInput struct {
    TicketID   uint64
    EngineerID uint64
    Cost       Amount
    Parts      []PartSelection
}

// CloseResult reports what the closure wrote.
type CloseResult struct {
    Ticket   model.Ticket `json:"ticket"`
    PartRows int          `json:"part_rows"`
}

// CloseTicket requires an existing engineer, writes one ticket_parts row
// per non-empty selection and then marks the ticket closed with the
// current time, the engineer and the cost (0 when not given).  Station
// users may only close their own station's tickets, with their own
// station's engineers.
func (w *Workflows) CloseTicket(ctx context.Context, view model.ViewState, in CloseTicketInput) (res CloseResult, err error) {
    started := time.Now()
    defer func() { w.Metrics.Workflow(metrics.WorkflowClose, outcome(err), started) }()

    if in.EngineerID == 0 {
        return res, invalid("Please select an engineer")
    }
    t, err := w.Tickets.GetByID(ctx, in.TicketID)
    if err != nil {
        return res, err
    }
    if !view.IsManager() && (t.StationID == nil || *t.StationID != view.StationID) {
        return res, repository.ErrForbidden
    }
    eng, err := w.Engineers.Engineer(ctx, in.EngineerID)
    switch {
    case errors.Is(err, repository.ErrEngineerNotFound):
        return res, invalid("Selected engineer does not exist")
    case err != nil:
        return res, err
    }
    if !view.IsManager() && eng.StationID != *t.StationID {
        return res, repository.ErrForbidden
    }

    for _, sel := range in.Parts {
        if sel.PartID == 0 {
            continue
        }
        row := model.TicketPart{TicketID: t.ID, PartID: sel.PartID, Quantity: sel.quantity()}
        if err := w.Tickets.InsertPart(ctx, row); err != nil {
            w.Metrics.PartRows("ticket", res.PartRows)
            return res, fmt.Errorf("save part %d: %w", sel.PartID, err)
        }
        res.PartRows++
    }
    w.Metrics.PartRows("ticket", res.PartRows)

    cost := 0.0
    if in.Cost.Set {
        cost = in.Cost.Value
    }
    at := w.now()
    if err := w.Tickets.Close(ctx, t.ID, in.EngineerID, cost, at); err != nil {
        return res, fmt.Errorf("close ticket: %w", err)
    }
    t.Status = model.TicketClosed
    t.ClosedAt = &at
    t.ClosedBy = &in.EngineerID
    t.CostCharged = &cost
    res.Ticket = t

    ev := queue.NewEvent(queue.TicketClosed, at)
    ev.TicketID, ev.EngineerID, ev.Cost, ev.PartRows = t.ID, in.EngineerID, cost, res.PartRows
    if t.StationID != nil {
        ev.StationID = *t.StationID
    }
    publish(ctx, w.Events, w.Metrics, ev)
    return res, nil
}

// WalkinInput is the walk-in form.
type WalkinInput struct {
    Plate      string
    Issue      string
    Cost       Amount
    EngineerID uint64
    Parts      []PartSelection
}

// WalkinResult reports what walk-in creation wrote.
type WalkinResult struct {
    Walkin   model.Walkin `json:"walkin"`
    PartRows int          `json:"part_rows"`
}

// CreateWalkin validates the form, resolves the station from the bike's
// registration (falling back to the engineer's station), inserts the
// walk-in and then one walkin_parts row per non-empty selection.  Nothing
// is written when validation or station resolution fails.
func (w *Workflows) CreateWalkin(ctx context.Context, view model.ViewState, in WalkinInput) (res WalkinResult, err error) {
    started := time.Now()
    defer func() { w.Metrics.Workflow(metrics.WorkflowWalkin, outcome(err), started) }()

    plate := strings.TrimSpace(in.Plate)
    issue := strings.TrimSpace(in.Issue)
    if plate == "" || issue == "" || !in.Cost.Set || in.EngineerID == 0 {
        return res, invalid("Bike number, issue, cost and engineer are required")
    }
    if in.Cost.Value < 0 {
        return res, invalid("Cost cannot be negative")
    }

    eng, err := w.Engineers.Engineer(ctx, in.EngineerID)
    switch {
    case errors.Is(err, repository.ErrEngineerNotFound):
        return res, invalid("Selected engineer does not exist")
    case err != nil:
        return res, err
    }
    if !view.IsManager() && eng.StationID != view.StationID {
        return res, repository.ErrForbidden
    }

    wk := model.Walkin{
        BikeNumberText:   plate,
        EngineerID:       &in.EngineerID,
        IssueDescription: issue,
        CostCharged:      in.Cost.Value,
    }
    bike, err := w.Bikes.GetByPlate(ctx, plate)
    switch {
    case err == nil:
        wk.BikeID = &bike.ID
        wk.ModelID = bike.ModelID
        if bike.StationID != nil {
            wk.StationID = *bike.StationID
        }
    case !errors.Is(err, repository.ErrBikeNotFound):
        log.Printf("walkin: plate %q lookup failed: %v", plate, err)
    }
    if wk.StationID == 0 {
        wk.StationID = eng.StationID
    }
    if wk.StationID == 0 {
        return res, invalid("Could not determine the station for this walk-in")
    }

    at := w.now()
    wk.LoggedAt = &at
    if err := w.Walkins.Create(ctx, &wk); err != nil {
        return res, fmt.Errorf("save walk-in: %w", err)
    }
    res.Walkin = wk

    for _, sel := range in.Parts {
        if sel.PartID == 0 {
            continue
        }
        row := model.WalkinPart{WalkinID: wk.ID, PartID: sel.PartID, Quantity: sel.quantity()}
        if err := w.Walkins.InsertPart(ctx, row); err != nil {
            w.Metrics.PartRows("walkin", res.PartRows)
            return res, fmt.Errorf("save part %d: %w", sel.PartID, err)
        }
        res.PartRows++
    }
    w.Metrics.PartRows("walkin", res.PartRows)

    ev := queue.NewEvent(queue.WalkinLogged, at)
    ev.WalkinID, ev.StationID, ev.EngineerID = wk.ID, wk.StationID, in.EngineerID
    ev.Plate, ev.Cost, ev.PartRows = plate, wk.CostCharged, res.PartRows
    publish(ctx, w.Events, w.Metrics, ev)
    return res, nil
}
