package service

import (
    "context"
    "errors"
    "log"
    "strings"

    "github.com/iliyamo/ev-service-portal/internal/metrics"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
)

// BikeFinder looks bikes up by id or plate.  Misses return
// repository.ErrBikeNotFound.
type BikeFinder interface {
    GetByID(ctx context.Context, id uint64) (model.Bike, error)
    GetByPlate(ctx context.Context, plate string) (model.Bike, error)
}

// PartCatalog reads the parts catalog and the per-model mapping.
type PartCatalog interface {
    Catalog(ctx context.Context) ([]model.Part, error)
    ByModel(ctx context.Context, modelID uint64) ([]model.Part, error)
}

// PartResolver finds the parts that fit the bike behind a ticket or
// walk-in.  Nothing is cached: every call resolves afresh.
type PartResolver struct {
    Bikes   BikeFinder
    Parts   PartCatalog
    Metrics *metrics.Recorder
}

// ResolveModel returns the bike model for an entity, trying the bike id
// first and the plate text second.  It returns nil when neither yields a
// model.  Lookup errors count as misses.
func (r *PartResolver) ResolveModel(ctx context.Context, bikeID *uint64, plate string) *uint64 {
    if bikeID != nil {
        b, err := r.Bikes.GetByID(ctx, *bikeID)
        if err == nil && b.ModelID != nil {
            return b.ModelID
        }
        if err != nil && !errors.Is(err, repository.ErrBikeNotFound) {
            log.Printf("parts: bike %d lookup failed: %v", *bikeID, err)
        }
    }
    if plate = strings.TrimSpace(plate); plate != "" {
        b, err := r.Bikes.GetByPlate(ctx, plate)
        if err == nil && b.ModelID != nil {
            return b.ModelID
        }
        if err != nil && !errors.Is(err, repository.ErrBikeNotFound) {
            log.Printf("parts: plate %q lookup failed: %v", plate, err)
        }
    }
    return nil
}

// CompatibleParts returns the parts mapped to modelID.  With no model, an
// empty mapping or a failed mapping lookup it returns the whole catalog.
// Only a failure to read the catalog itself is an error.
func (r *PartResolver) CompatibleParts(ctx context.Context, modelID *uint64) ([]model.Part, error) {
    if modelID != nil {
        parts, err := r.Parts.ByModel(ctx, *modelID)
        if err == nil && len(parts) > 0 {
            return parts, nil
        }
        if err != nil {
            log.Printf("parts: mapping lookup for model %d failed: %v; using full catalog", *modelID, err)
        }
        r.Metrics.CatalogFallback()
    }
    return r.Parts.Catalog(ctx)
}

// ForEntity resolves the model behind bikeID/plate and returns its parts.
func (r *PartResolver) ForEntity(ctx context.Context, bikeID *uint64, plate string) ([]model.Part, error) {
    return r.CompatibleParts(ctx, r.ResolveModel(ctx, bikeID, plate))
}
