package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "path/filepath"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/metrics"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/queue"
    "github.com/iliyamo/ev-service-portal/internal/repository"
    "github.com/iliyamo/ev-service-portal/internal/storage"
)

// TicketCreator inserts a ticket and fills in its id.
type TicketCreator interface {
    Create(ctx context.Context, t *model.Ticket) error
}

// ObjectStore keeps uploaded files.
type ObjectStore interface {
    Put(ctx context.Context, bucket, key, contentType string, data []byte) error
}

// Upload is an attached file.
type Upload struct {
    Filename    string
    ContentType string
    Data        []byte
}

// IntakeForm is a customer ticket submission.
type IntakeForm struct {
    Plate    string
    Issue    string
    Location string
    Contact  string
    Image    *Upload
}

// Intake raises tickets from the public form.
type Intake struct {
    Tickets       TicketCreator
    Bikes         BikeFinder
    Images        ObjectStore
    Events        Publisher
    Metrics       *metrics.Recorder
    MaxImageWidth uint
    Now           func() time.Time
}

// Submit stores the optional image in the ticket-images bucket, resolves
// the station from the plate and inserts an open ticket.  An image that
// was stored is not removed if the insert then fails.
func (s *Intake) Submit(ctx context.Context, f IntakeForm) (t model.Ticket, err error) {
    started := time.Now()
    defer func() { s.Metrics.Workflow(metrics.WorkflowIntake, outcome(err), started) }()

    if f.Plate == "" || f.Issue == "" {
        return t, invalid("Bike number and issue description are required")
    }
    now := time.Now().UTC()
    if s.Now != nil {
        now = s.Now().UTC()
    }

    if f.Image != nil {
        key := fmt.Sprintf("%d_%s", now.UnixMilli(), filepath.Base(f.Image.Filename))
        ct := f.Image.ContentType
        if ct == "" {
            ct = "image/jpeg"
        }
        data := storage.Normalize(f.Image.Data, ct, s.MaxImageWidth)
        if err := s.Images.Put(ctx, storage.TicketImages, key, ct, data); err != nil {
            log.Printf("intake: image upload failed: %v", err)
            return t, fmt.Errorf("image upload failed: %w", err)
        }
        t.ImagePath = &key
    }

    bike, err := s.Bikes.GetByPlate(ctx, f.Plate)
    switch {
    case err == nil:
        t.StationID = bike.StationID
    case !errors.Is(err, repository.ErrBikeNotFound):
        log.Printf("intake: bike lookup error: %v", err)
    }

    t.BikeNumberText = f.Plate
    t.IssueDescription = f.Issue
    t.Location = f.Location
    t.Contact = f.Contact
    t.Status = model.TicketOpen
    t.ReportedAt = &now
    if err := s.Tickets.Create(ctx, &t); err != nil {
        log.Printf("intake: ticket insert error: %v", err)
        return t, err
    }

    ev := queue.NewEvent(queue.TicketCreated, now)
    ev.TicketID, ev.Plate = t.ID, t.BikeNumberText
    if t.StationID != nil {
        ev.StationID = *t.StationID
    }
    publish(ctx, s.Events, s.Metrics, ev)
    return t, nil
}
