package model

import "time"

// Walkin is a service job performed without a prior customer ticket
// (`walkins` table).  Walk-ins are never updated after creation.
type Walkin struct {
    ID               uint64     `json:"id"`
    BikeID           *uint64    `json:"bike_id,omitempty"`
    BikeNumberText   string     `json:"bike_number_text"`
    StationID        uint64     `json:"station_id"`
    EngineerID       *uint64    `json:"engineer_id,omitempty"`
    ModelID          *uint64    `json:"model_id,omitempty"`
    IssueDescription string     `json:"issue_description"`
    CostCharged      float64    `json:"cost_charged"`
    LoggedAt         *time.Time `json:"logged_at,omitempty"`
}

// WalkinPart links a walk-in to a part used on it (`walkin_parts`).
type WalkinPart struct {
    ID       uint64 `json:"id"`
    WalkinID uint64 `json:"walkin_id"`
    PartID   uint64 `json:"part_id"`
    Quantity int    `json:"quantity"`
}
