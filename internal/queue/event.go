// Package queue defines the domain events exchanged over the message broker,
// the publisher used by the workflows and the background consumer that
// writes them to logs/service.log.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// Event types double as queue names.
const (
    TicketCreated = "ticket.created"
    TicketClosed  = "ticket.closed"
    WalkinLogged  = "walkin.logged"
)

// Queues lists every queue the consumer drains.
var Queues = []string{TicketCreated, TicketClosed, WalkinLogged}

// Event is published after a ticket is raised, a ticket is closed or a
// walk-in is logged.  It carries enough for downstream consumers to log or
// notify without querying the primary database.
type Event struct {
    ID         string  `json:"id"`
    Type       string  `json:"type"`
    OccurredAt string  `json:"occurred_at"`
    TicketID   uint64  `json:"ticket_id,omitempty"`
    WalkinID   uint64  `json:"walkin_id,omitempty"`
    StationID  uint64  `json:"station_id,omitempty"`
    EngineerID uint64  `json:"engineer_id,omitempty"`
    Plate      string  `json:"bike_number,omitempty"`
    Cost       float64 `json:"cost"`
    PartRows   int     `json:"part_rows"`
}

// NewEvent stamps a fresh id and timestamp on an event of type typ.
func NewEvent(typ string, at time.Time) Event {
    return Event{ID: uuid.NewString(), Type: typ, OccurredAt: at.UTC().Format(time.RFC3339)}
}
