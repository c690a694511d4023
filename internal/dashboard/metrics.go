// Package dashboard holds the pure, in-memory computations behind the
// station and manager dashboards: metric aggregation, filtering, sorting
// and pagination over ticket and walk-in snapshots.  Nothing in this
// package touches the database; callers load a snapshot and pass it in.
package dashboard

import (
    "math"
    "strconv"
    "strings"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// isoLayout renders timestamps the way the date filters compare them:
// UTC, date first, so a "2024-01-01" prefix selects one calendar day.
const isoLayout = "2006-01-02T15:04:05Z07:00"

// activityWindow is the trailing period covered by engineer performance
// and the weekly walk-in count.
const activityWindowDays = 7

// Minutes is a duration in minutes shown with one decimal place.
type Minutes float64

// String formats m with exactly one decimal.
func (m Minutes) String() string { return strconv.FormatFloat(float64(m), 'f', 1, 64) }

// MarshalJSON emits m as a JSON number with one decimal (e.g. 90.0).
func (m Minutes) MarshalJSON() ([]byte, error) { return []byte(m.String()), nil }

// EngineerActivity counts the jobs an engineer finished in the window.
type EngineerActivity struct {
    Tickets int `json:"tickets"`
    Walkins int `json:"walkins"`
}

// Total is the sum of closed tickets and logged walk-ins.
func (a EngineerActivity) Total() int { return a.Tickets + a.Walkins }

// TicketMetrics summarises ticket activity relative to a reference time.
type TicketMetrics struct {
    TotalToday          int                          `json:"total_today"`
    ClosedToday         int                          `json:"closed_today"`
    OpenNow             int                          `json:"open_now"`
    AvgTAT              Minutes                      `json:"avg_tat"`
    EngineerPerformance map[uint64]*EngineerActivity `json:"engineer_performance"`
}

// WalkinMetrics counts walk-ins logged today and in the trailing week.
type WalkinMetrics struct {
    Today int `json:"today"`
    Week  int `json:"week"`
}

// Metrics is the full dashboard summary.
type Metrics struct {
    Tickets TicketMetrics `json:"ticket_metrics"`
    Walkins WalkinMetrics `json:"walkin_metrics"`
}

// isoString renders t for prefix matching; nil renders as "" so it never
// matches a non-empty prefix.
func isoString(t *time.Time) string {
    if t == nil {
        return ""
    }
    return t.UTC().Format(isoLayout)
}

// hasDatePrefix reports whether t's ISO rendering starts with prefix.
// A nil timestamp never matches.
func hasDatePrefix(t *time.Time, prefix string) bool {
    if t == nil {
        return false
    }
    return strings.HasPrefix(isoString(t), prefix)
}

// Today returns now's calendar day as an ISO date string (UTC).
func Today(now time.Time) string { return now.UTC().Format("2006-01-02") }

// Compute aggregates the dashboard metrics from full ticket and walk-in
// snapshots.  It is pure: identical inputs always produce identical
// output.  Records with missing timestamps are skipped by every metric
// that needs them.
func Compute(tickets []model.Ticket, walkins []model.Walkin, now time.Time) Metrics {
    today := Today(now)
    weekAgo := now.AddDate(0, 0, -activityWindowDays)

    var m Metrics
    m.Tickets.EngineerPerformance = make(map[uint64]*EngineerActivity)
    perf := m.Tickets.EngineerPerformance

    var tatSum float64
    var tatCount int
    for _, t := range tickets {
        if hasDatePrefix(t.ReportedAt, today) {
            m.Tickets.TotalToday++
        }
        if t.Status == model.TicketOpen {
            m.Tickets.OpenNow++
        }
        if hasDatePrefix(t.ClosedAt, today) {
            m.Tickets.ClosedToday++
            if t.ReportedAt != nil {
                tatSum += float64(t.ClosedAt.Sub(*t.ReportedAt).Milliseconds()) / 60000
                tatCount++
            }
        }
        if t.ClosedBy == nil || t.ClosedAt == nil || t.ClosedAt.Before(weekAgo) {
            continue
        }
        activity(perf, *t.ClosedBy).Tickets++
    }
    if tatCount > 0 {
        m.Tickets.AvgTAT = Minutes(roundOne(tatSum / float64(tatCount)))
    }

    for _, w := range walkins {
        if hasDatePrefix(w.LoggedAt, today) {
            m.Walkins.Today++
        }
        if w.LoggedAt == nil || w.LoggedAt.Before(weekAgo) {
            continue
        }
        m.Walkins.Week++
        if w.EngineerID != nil {
            activity(perf, *w.EngineerID).Walkins++
        }
    }
    return m
}

// activity returns the tally for id, inserting a zero entry on first use.
func activity(perf map[uint64]*EngineerActivity, id uint64) *EngineerActivity {
    a, ok := perf[id]
    if !ok {
        a = &EngineerActivity{}
        perf[id] = a
    }
    return a
}

func roundOne(v float64) float64 { return math.Round(v*10) / 10 }
