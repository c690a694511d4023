package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// InventoryRepo reads and adjusts per-station stock.
type InventoryRepo struct{ db *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

const inventorySelect = `SELECT i.id, i.station_id, i.part_id, i.quantity, i.reorder_level,
    i.last_updated_by_manager, i.updated_at, p.id, p.part_name, p.sku, p.unit_cost
    FROM inventory_master i LEFT JOIN parts_catalog p ON p.id = i.part_id`

func scanInventory(s rowScanner) (model.InventoryItem, error) {
    var (
        it                    model.InventoryItem
        stationID             sql.NullInt64
        qty, reorder, manager sql.NullInt64
        updatedAt             sql.NullTime
        partID                sql.NullInt64
        name, sku             sql.NullString
        cost                  sql.NullFloat64
    )
    if err := s.Scan(&it.ID, &stationID, &it.PartID, &qty, &reorder, &manager, &updatedAt,
        &partID, &name, &sku, &cost); err != nil {
        return it, err
    }
    it.StationID = uint64(stationID.Int64)
    it.Quantity = intPtr(qty)
    it.ReorderLevel = intPtr(reorder)
    it.LastUpdatedByManager = uintPtr(manager)
    it.UpdatedAt = timePtr(updatedAt)
    if partID.Valid {
        it.Part = &model.Part{ID: uint64(partID.Int64), PartName: name.String, SKU: sku.String, UnitCost: cost.Float64}
    }
    return it, nil
}

// List returns inventory rows with their catalog entries, optionally for
// one station.
func (r *InventoryRepo) List(ctx context.Context, stationID uint64) ([]model.InventoryItem, error) {
    q := inventorySelect
    var args []any
    if stationID != 0 {
        q += " WHERE i.station_id = ?"
        args = append(args, stationID)
    }
    q += " ORDER BY i.station_id, p.part_name"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.InventoryItem
    for rows.Next() {
        it, err := scanInventory(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, it)
    }
    return out, rows.Err()
}

// GetByID loads one inventory row or ErrInventoryNotFound.
func (r *InventoryRepo) GetByID(ctx context.Context, id uint64) (model.InventoryItem, error) {
    it, err := scanInventory(r.db.QueryRowContext(ctx, inventorySelect+" WHERE i.id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return it, ErrInventoryNotFound
    }
    return it, err
}

// UpdateQuantity stores a new quantity together with the manager who set it.
func (r *InventoryRepo) UpdateQuantity(ctx context.Context, id uint64, qty int, managerID uint64, at time.Time) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE inventory_master SET quantity=?, last_updated_by_manager=?, updated_at=? WHERE id=?",
        qty, managerID, at.UTC(), id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrInventoryNotFound
    }
    return nil
}
