package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// WalkinRepo persists walk-in jobs and the parts used on them.
type WalkinRepo struct{ db *sql.DB }

func NewWalkinRepo(db *sql.DB) *WalkinRepo { return &WalkinRepo{db: db} }

// List returns walk-ins newest first, optionally for one station.
func (r *WalkinRepo) List(ctx context.Context, stationID uint64) ([]model.Walkin, error) {
    q := `SELECT id, bike_id, bike_number_text, station_id, engineer_id, model_id,
        issue_description, cost_charged, logged_at FROM walkins`
    var args []any
    if stationID != 0 {
        q += ` WHERE station_id = ?`
        args = append(args, stationID)
    }
    q += ` ORDER BY logged_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Walkin
    for rows.Next() {
        var (
            w                         model.Walkin
            bikeID, engID, modelID    sql.NullInt64
            cost                      sql.NullFloat64
            loggedAt                  sql.NullTime
        )
        if err := rows.Scan(&w.ID, &bikeID, &w.BikeNumberText, &w.StationID, &engID, &modelID,
            &w.IssueDescription, &cost, &loggedAt); err != nil {
            return nil, err
        }
        w.BikeID = uintPtr(bikeID)
        w.EngineerID = uintPtr(engID)
        w.ModelID = uintPtr(modelID)
        w.CostCharged = cost.Float64
        w.LoggedAt = timePtr(loggedAt)
        out = append(out, w)
    }
    return out, rows.Err()
}

// Create inserts a walk-in and assigns the generated id back to w.
func (r *WalkinRepo) Create(ctx context.Context, w *model.Walkin) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO walkins (bike_id, bike_number_text, station_id, engineer_id, model_id,
            issue_description, cost_charged, logged_at) VALUES (?,?,?,?,?,?,?,?)`,
        nullable(w.BikeID), w.BikeNumberText, w.StationID, nullable(w.EngineerID), nullable(w.ModelID),
        w.IssueDescription, w.CostCharged, w.LoggedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    w.ID = uint64(id)
    return nil
}

// InsertPart appends one walkin_parts row.
func (r *WalkinRepo) InsertPart(ctx context.Context, p model.WalkinPart) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO walkin_parts (walkin_id, part_id, quantity) VALUES (?,?,?)",
        p.WalkinID, p.PartID, p.Quantity)
    return err
}

// ListParts returns every walkin_parts row.
func (r *WalkinRepo) ListParts(ctx context.Context) ([]model.WalkinPart, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, walkin_id, part_id, quantity FROM walkin_parts")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.WalkinPart
    for rows.Next() {
        var p model.WalkinPart
        if err := rows.Scan(&p.ID, &p.WalkinID, &p.PartID, &p.Quantity); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}
