package service

import (
    "context"
    "math"
    "strconv"
    "strings"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/metrics"
    "github.com/iliyamo/ev-service-portal/internal/model"
)

// Inventory edit modes.
const (
    EditOverwrite = "overwrite"
    EditDelta     = "delta"
)

// ApplyInventoryEdit computes the new quantity for an edit.  In overwrite
// mode raw is the new quantity; in delta mode it is added to current (a
// missing current quantity counts as zero).  changed is false when the
// quantity would not move.  Non-numeric input and negative results are
// validation errors.
func ApplyInventoryEdit(current *int, mode, raw string) (qty int, changed bool, err error) {
    v, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
    if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
        return 0, false, invalid("Please enter a valid number")
    }
    n := int(math.Trunc(v))
    old := 0
    if current != nil {
        old = *current
    }
    switch mode {
    case EditOverwrite:
        qty = n
    case EditDelta:
        qty = old + n
    default:
        return 0, false, invalid("Unknown edit mode")
    }
    if qty < 0 {
        return 0, false, invalid("Quantity cannot go below zero")
    }
    return qty, qty != old, nil
}

// InventoryStore reads and updates inventory rows.
type InventoryStore interface {
    GetByID(ctx context.Context, id uint64) (model.InventoryItem, error)
    UpdateQuantity(ctx context.Context, id uint64, qty int, managerID uint64, at time.Time) error
}

// InventoryEditor applies manager stock edits.
type InventoryEditor struct {
    Store   InventoryStore
    Metrics *metrics.Recorder
    Now     func() time.Time
}

// Edit applies mode/raw to inventory row id on behalf of managerID and
// returns the row as stored.  An edit that leaves the quantity unchanged
// writes nothing.
func (e *InventoryEditor) Edit(ctx context.Context, managerID, id uint64, mode, raw string) (it model.InventoryItem, err error) {
    started := time.Now()
    defer func() { e.Metrics.Workflow(metrics.WorkflowStock, outcome(err), started) }()

    it, err = e.Store.GetByID(ctx, id)
    if err != nil {
        return it, err
    }
    qty, changed, err := ApplyInventoryEdit(it.Quantity, mode, raw)
    if err != nil || !changed {
        return it, err
    }
    at := time.Now().UTC()
    if e.Now != nil {
        at = e.Now().UTC()
    }
    if err := e.Store.UpdateQuantity(ctx, id, qty, managerID, at); err != nil {
        return it, err
    }
    it.Quantity = &qty
    it.LastUpdatedByManager = &managerID
    it.UpdatedAt = &at
    return it, nil
}
