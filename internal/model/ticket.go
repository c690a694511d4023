package model

import "time"

// Ticket statuses.  A ticket moves from open to closed exactly once in
// normal operation; nothing prevents a second close from overwriting the
// first.
const (
    TicketOpen   = "open"
    TicketClosed = "closed"
)

// Ticket represents a customer-reported service issue as stored in the
// `tickets` table.  Nullable columns are pointers so that a missing value
// can be told apart from a zero value.
//
// Fields:
//  ID               – primary key identifier.
//  TicketNo         – optional human-facing ticket code.
//  BikeID           – bikes.id when the plate matched a registered bike.
//  BikeNumberText   – plate exactly as the customer typed it.
//  StationID        – owning station; nil when the plate was unknown.
//  IssueDescription – free-text problem description.
//  Location, Contact – optional intake details.
//  ImagePath        – object key in the ticket-images bucket.
//  Status           – open or closed.
//  ReportedAt       – when the ticket was raised.
//  ClosedAt         – when the ticket was closed (set with ClosedBy).
//  ClosedBy         – engineers.id of the closing engineer.
//  CostCharged      – amount charged on close.
type Ticket struct {
    ID               uint64     `json:"id"`
    TicketNo         *string    `json:"ticket_no,omitempty"`
    BikeID           *uint64    `json:"bike_id,omitempty"`
    BikeNumberText   string     `json:"bike_number_text"`
    StationID        *uint64    `json:"station_id,omitempty"`
    IssueDescription string     `json:"issue_description"`
    Location         string     `json:"location,omitempty"`
    Contact          string     `json:"contact,omitempty"`
    ImagePath        *string    `json:"image_path,omitempty"`
    Status           string     `json:"status"`
    ReportedAt       *time.Time `json:"reported_at,omitempty"`
    ClosedAt         *time.Time `json:"closed_at,omitempty"`
    ClosedBy         *uint64    `json:"closed_by,omitempty"`
    CostCharged      *float64   `json:"cost_charged,omitempty"`
}

// IsOpen reports whether the ticket still awaits closure.
func (t Ticket) IsOpen() bool { return t.Status == TicketOpen }

// TicketPart links a ticket to a part consumed while closing it
// (`ticket_parts`).  Rows are only ever appended.
type TicketPart struct {
    ID       uint64 `json:"id"`
    TicketID uint64 `json:"ticket_id"`
    PartID   uint64 `json:"part_id"`
    Quantity int    `json:"quantity"`
}
