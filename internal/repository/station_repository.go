package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// StationRepo reads stations and their engineers.  Both are reference
// data maintained outside this service.
type StationRepo struct{ db *sql.DB }

func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{db: db} }

// List returns all stations ordered by id.
func (r *StationRepo) List(ctx context.Context) ([]model.Station, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, name, station_code FROM stations ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Station
    for rows.Next() {
        var (
            s    model.Station
            code sql.NullString
        )
        if err := rows.Scan(&s.ID, &s.Name, &code); err != nil {
            return nil, err
        }
        s.StationCode = code.String
        out = append(out, s)
    }
    return out, rows.Err()
}

// GetByID loads a station or ErrStationNotFound.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (model.Station, error) {
    var (
        s    model.Station
        code sql.NullString
    )
    err := r.db.QueryRowContext(ctx, "SELECT id, name, station_code FROM stations WHERE id = ?", id).
        Scan(&s.ID, &s.Name, &code)
    if errors.Is(err, sql.ErrNoRows) {
        return s, ErrStationNotFound
    }
    s.StationCode = code.String
    return s, err
}

// Engineers lists engineers of one station, or all when stationID is 0.
func (r *StationRepo) Engineers(ctx context.Context, stationID uint64) ([]model.Engineer, error) {
    q := "SELECT id, name, station_id FROM engineers"
    var args []any
    if stationID != 0 {
        q += " WHERE station_id = ?"
        args = append(args, stationID)
    }
    q += " ORDER BY name"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Engineer
    for rows.Next() {
        var e model.Engineer
        if err := rows.Scan(&e.ID, &e.Name, &e.StationID); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// Engineer loads one engineer or ErrEngineerNotFound.
func (r *StationRepo) Engineer(ctx context.Context, id uint64) (model.Engineer, error) {
    var e model.Engineer
    err := r.db.QueryRowContext(ctx, "SELECT id, name, station_id FROM engineers WHERE id = ?", id).
        Scan(&e.ID, &e.Name, &e.StationID)
    if errors.Is(err, sql.ErrNoRows) {
        return e, ErrEngineerNotFound
    }
    return e, err
}
