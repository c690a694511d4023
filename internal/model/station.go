package model

import "time"

// Station is a physical service location (`stations`).
type Station struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    StationCode string `json:"station_code"`
}

// Engineer works at exactly one station (`engineers`).  Reference data.
type Engineer struct {
    ID        uint64 `json:"id"`
    Name      string `json:"name"`
    StationID uint64 `json:"station_id"`
}

// Bike is a registered vehicle (`bikes`).  BikeNumber is the plate text
// customers type into the intake form.
type Bike struct {
    ID         uint64  `json:"id"`
    BikeNumber string  `json:"bike_number"`
    StationID  *uint64 `json:"station_id,omitempty"`
    ModelID    *uint64 `json:"model_id,omitempty"`
}

// BikeModel names a bike model (`bike_models`).
type BikeModel struct {
    ID        uint64 `json:"id"`
    ModelName string `json:"model_name"`
}

// Part is a catalog entry (`parts_catalog`).
type Part struct {
    ID       uint64  `json:"id"`
    PartName string  `json:"part_name"`
    SKU      string  `json:"sku"`
    UnitCost float64 `json:"unit_cost"`
}

// InventoryItem is a per-station stock row (`inventory_master`) joined
// with its catalog entry.
//
// Fields:
//  Quantity     – units on hand; nil when never counted.
//  ReorderLevel – threshold at or below which stock is low; nil disables
//                 the low-stock flag.
type InventoryItem struct {
    ID                   uint64     `json:"id"`
    StationID            uint64     `json:"station_id"`
    PartID               uint64     `json:"part_id"`
    Quantity             *int       `json:"quantity"`
    ReorderLevel         *int       `json:"reorder_level"`
    LastUpdatedByManager *uint64    `json:"last_updated_by_manager,omitempty"`
    UpdatedAt            *time.Time `json:"updated_at,omitempty"`
    Part                 *Part      `json:"part,omitempty"`
}
