package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// PartRepo reads the parts catalog and the part/model compatibility map.
type PartRepo struct{ db *sql.DB }

func NewPartRepo(db *sql.DB) *PartRepo { return &PartRepo{db: db} }

func (r *PartRepo) queryParts(ctx context.Context, q string, args ...any) ([]model.Part, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Part
    for rows.Next() {
        var (
            p   model.Part
            sku sql.NullString
        )
        if err := rows.Scan(&p.ID, &p.PartName, &sku, &p.UnitCost); err != nil {
            return nil, err
        }
        p.SKU = sku.String
        out = append(out, p)
    }
    return out, rows.Err()
}

// Catalog returns the full parts catalog ordered by name.
func (r *PartRepo) Catalog(ctx context.Context) ([]model.Part, error) {
    return r.queryParts(ctx, "SELECT id, part_name, sku, unit_cost FROM parts_catalog ORDER BY part_name")
}

// ByModel returns the parts mapped to a bike model.
func (r *PartRepo) ByModel(ctx context.Context, modelID uint64) ([]model.Part, error) {
    return r.queryParts(ctx, `SELECT p.id, p.part_name, p.sku, p.unit_cost
        FROM part_model_map m JOIN parts_catalog p ON p.id = m.part_id
        WHERE m.model_id = ? ORDER BY p.part_name`, modelID)
}

// ModelNamesByPart maps each part id to the names of the models it fits.
func (r *PartRepo) ModelNamesByPart(ctx context.Context) (map[uint64][]string, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT m.part_id, b.model_name
        FROM part_model_map m JOIN bike_models b ON b.id = m.model_id
        ORDER BY m.part_id, b.model_name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := map[uint64][]string{}
    for rows.Next() {
        var (
            partID uint64
            name   string
        )
        if err := rows.Scan(&partID, &name); err != nil {
            return nil, err
        }
        out[partID] = append(out[partID], name)
    }
    return out, rows.Err()
}
