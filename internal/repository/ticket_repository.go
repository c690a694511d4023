package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

const ticketColumns = `id, ticket_no, bike_id, bike_number_text, station_id, issue_description,
    location, contact, image_path, status, reported_at, closed_at, closed_by, cost_charged`

// TicketRepo persists tickets and their part-usage rows.
type TicketRepo struct{ db *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

func scanTicket(s rowScanner) (model.Ticket, error) {
    var (
        t                            model.Ticket
        ticketNo, location, contact  sql.NullString
        imagePath                    sql.NullString
        bikeID, stationID, closedBy  sql.NullInt64
        reportedAt, closedAt         sql.NullTime
        cost                         sql.NullFloat64
    )
    err := s.Scan(&t.ID, &ticketNo, &bikeID, &t.BikeNumberText, &stationID, &t.IssueDescription,
        &location, &contact, &imagePath, &t.Status, &reportedAt, &closedAt, &closedBy, &cost)
    if err != nil {
        return t, err
    }
    t.TicketNo = strPtr(ticketNo)
    t.BikeID = uintPtr(bikeID)
    t.StationID = uintPtr(stationID)
    t.Location = location.String
    t.Contact = contact.String
    t.ImagePath = strPtr(imagePath)
    t.ReportedAt = timePtr(reportedAt)
    t.ClosedAt = timePtr(closedAt)
    t.ClosedBy = uintPtr(closedBy)
    t.CostCharged = floatPtr(cost)
    return t, nil
}

// List returns every ticket, or only one station's tickets when stationID
// is non-zero, newest first.
func (r *TicketRepo) List(ctx context.Context, stationID uint64) ([]model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets`
    var args []any
    if stationID != 0 {
        q += ` WHERE station_id = ?`
        args = append(args, stationID)
    }
    q += ` ORDER BY reported_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Ticket
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// GetByID loads one ticket or ErrTicketNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
    t, err := scanTicket(r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return t, ErrTicketNotFound
    }
    return t, err
}

// Create inserts an open ticket and assigns the generated id back to t.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
    const q = `INSERT INTO tickets (bike_id, bike_number_text, station_id, issue_description,
        location, contact, image_path, status, reported_at) VALUES (?,?,?,?,?,?,?,?,?)`
    var image any
    if t.ImagePath != nil {
        image = *t.ImagePath
    }
    res, err := r.db.ExecContext(ctx, q, nullable(t.BikeID), t.BikeNumberText, nullable(t.StationID),
        t.IssueDescription, t.Location, t.Contact, image, t.Status, t.ReportedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// InsertPart appends one ticket_parts row.
func (r *TicketRepo) InsertPart(ctx context.Context, p model.TicketPart) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO ticket_parts (ticket_id, part_id, quantity) VALUES (?,?,?)",
        p.TicketID, p.PartID, p.Quantity)
    return err
}

// Close marks a ticket closed.  The update is unconditional: closing an
// already closed ticket overwrites the earlier closure.
func (r *TicketRepo) Close(ctx context.Context, id, engineerID uint64, cost float64, at time.Time) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE tickets SET status=?, closed_at=?, closed_by=?, cost_charged=? WHERE id=?",
        model.TicketClosed, at.UTC(), engineerID, cost, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTicketNotFound
    }
    return nil
}
