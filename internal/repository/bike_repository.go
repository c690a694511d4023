package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// BikeRepo looks up registered bikes.
type BikeRepo struct{ db *sql.DB }

func NewBikeRepo(db *sql.DB) *BikeRepo { return &BikeRepo{db: db} }

func (r *BikeRepo) getOne(ctx context.Context, where string, arg any) (model.Bike, error) {
    var (
        b                  model.Bike
        stationID, modelID sql.NullInt64
    )
    err := r.db.QueryRowContext(ctx,
        "SELECT id, bike_number, station_id, model_id FROM bikes WHERE "+where+" LIMIT 1", arg).
        Scan(&b.ID, &b.BikeNumber, &stationID, &modelID)
    if errors.Is(err, sql.ErrNoRows) {
        return b, ErrBikeNotFound
    }
    if err != nil {
        return b, err
    }
    b.StationID = uintPtr(stationID)
    b.ModelID = uintPtr(modelID)
    return b, nil
}

// GetByID loads a bike or ErrBikeNotFound.
func (r *BikeRepo) GetByID(ctx context.Context, id uint64) (model.Bike, error) {
    return r.getOne(ctx, "id = ?", id)
}

// GetByPlate matches the plate exactly after trimming surrounding space.
func (r *BikeRepo) GetByPlate(ctx context.Context, plate string) (model.Bike, error) {
    plate = strings.TrimSpace(plate)
    if plate == "" {
        return model.Bike{}, ErrBikeNotFound
    }
    return r.getOne(ctx, "bike_number = ?", plate)
}
