// Package service implements the portal's write workflows and the reads
// that feed the dashboards.  Every dependency is a small interface so the
// repositories, broker and object store can be swapped for fakes.
package service

import (
    "context"
    "errors"
    "log"

    "github.com/iliyamo/ev-service-portal/internal/metrics"
    "github.com/iliyamo/ev-service-portal/internal/queue"
)

// ErrValidation marks errors caused by missing or malformed input.  No
// write has happened when a workflow returns one.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the user-facing reason.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string        { return e.Msg }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// Message renders a workflow outcome as a status line: "✅" on success,
// "⚠️" for validation problems and "❌" for every other failure.
func Message(success string, err error) string {
    switch {
    case err == nil:
        return "✅ " + success
    case errors.Is(err, ErrValidation):
        return "⚠️ " + err.Error()
    default:
        return "❌ Failed: " + err.Error()
    }
}

// outcome maps an error to a metrics outcome label.
func outcome(err error) string {
    switch {
    case err == nil:
        return "ok"
    case errors.Is(err, ErrValidation):
        return "invalid"
    default:
        return "failed"
    }
}

// Publisher hands domain events to the broker.
type Publisher interface {
    Publish(ctx context.Context, ev queue.Event) error
}

// publish sends ev and swallows the error after logging it; a broker
// outage never fails a workflow that already wrote its rows.
func publish(ctx context.Context, p Publisher, rec *metrics.Recorder, ev queue.Event) {
    if p == nil {
        return
    }
    err := p.Publish(ctx, ev)
    rec.Event(ev.Type, err)
    if err != nil {
        log.Printf("events: publish %s failed: %v", ev.Type, err)
    }
}
