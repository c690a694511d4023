// Package legacy talks to the historical ticket automation endpoint.  The
// endpoint accepts a JSON envelope {action, payload} over POST and answers
// {ok, payload, error}.  It is read-only from this service's point of view.
package legacy

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"
)

// Legacy ticket statuses.
const (
    StatusOpen       = "Open"
    StatusInProgress = "In-Progress"
    StatusClosed     = "Closed"
)

// ErrDisabled is returned when no endpoint URL is configured.
var ErrDisabled = errors.New("legacy intake disabled")

// Ticket is a row as the automation endpoint reports it.
type Ticket struct {
    BikeNo           string `json:"bike_no"`
    IssueSummary     string `json:"issue_summary"`
    RaisedOn         string `json:"raised_on"`
    AssignedEngineer string `json:"assigned_engineer"`
    Status           string `json:"status"`
}

// Counts tallies tickets per legacy status.
type Counts struct {
    Open       int `json:"open"`
    InProgress int `json:"in_progress"`
    Closed     int `json:"closed"`
}

// TicketList is the result of getTickets.
type TicketList struct {
    Tickets []Ticket `json:"tickets"`
    Counts  Counts   `json:"counts"`
}

type envelope struct {
    Action  string `json:"action"`
    Payload any    `json:"payload"`
}

type reply struct {
    OK      bool            `json:"ok"`
    Error   string          `json:"error"`
    Payload json.RawMessage `json:"payload"`
}

// Client calls the endpoint at URL.
type Client struct {
    URL  string
    HTTP *http.Client
}

// NewClient returns a client with a 10s timeout.  An empty url yields a
// client whose calls return ErrDisabled.
func NewClient(url string) *Client {
    return &Client{URL: url, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.URL != "" }

func (c *Client) call(ctx context.Context, action string, payload any, out any) error {
    if !c.Enabled() {
        return ErrDisabled
    }
    body, err := json.Marshal(envelope{Action: action, Payload: payload})
    if err != nil {
        return err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.HTTP.Do(req)
    if err != nil {
        return fmt.Errorf("legacy: %s: %w", action, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return fmt.Errorf("legacy: %s: network error (status %d)", action, resp.StatusCode)
    }
    var r reply
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
        return fmt.Errorf("legacy: %s: decode: %w", action, err)
    }
    if !r.OK {
        if r.Error == "" {
            r.Error = "unknown error"
        }
        return fmt.Errorf("legacy: %s: %s", action, r.Error)
    }
    if out == nil || len(r.Payload) == 0 {
        return nil
    }
    return json.Unmarshal(r.Payload, out)
}

// GetTickets fetches up to limit tickets and tallies them by status.
func (c *Client) GetTickets(ctx context.Context, limit int) (TicketList, error) {
    var p struct {
        Tickets []Ticket `json:"tickets"`
    }
    if err := c.call(ctx, "getTickets", map[string]int{"limit": limit}, &p); err != nil {
        return TicketList{}, err
    }
    out := TicketList{Tickets: p.Tickets}
    if out.Tickets == nil {
        out.Tickets = []Ticket{}
    }
    for _, t := range out.Tickets {
        switch t.Status {
        case StatusOpen:
            out.Counts.Open++
        case StatusInProgress:
            out.Counts.InProgress++
        case StatusClosed:
            out.Counts.Closed++
        }
    }
    return out, nil
}
