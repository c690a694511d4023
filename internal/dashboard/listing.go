package dashboard

import (
    "sort"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// PageSize is the fixed number of rows per dashboard page.
const PageSize = 15

// Page is one 1-based page of a filtered list.
type Page[T any] struct {
    Items      []T `json:"items"`
    Page       int `json:"page"`
    TotalPages int `json:"total_pages"`
    Total      int `json:"total"`
}

// Paginate slices items into pages of size and returns the requested
// page.  A page past the end is clamped to the last page and a page below
// one is clamped to the first, so a narrowing filter never strands the
// caller on an empty page.  There is always at least one page.
func Paginate[T any](items []T, page, size int) Page[T] {
    if size <= 0 {
        size = PageSize
    }
    total := len(items)
    totalPages := (total + size - 1) / size
    if totalPages < 1 {
        totalPages = 1
    }
    if page > totalPages {
        page = totalPages
    }
    if page < 1 {
        page = 1
    }
    start := (page - 1) * size
    end := start + size
    if end > total {
        end = total
    }
    out := make([]T, 0, end-start)
    out = append(out, items[start:end]...)
    return Page[T]{Items: out, Page: page, TotalPages: totalPages, Total: total}
}

// TicketQuery selects a page of the station ticket list.
type TicketQuery struct {
    Date      string // reported-at prefix, usually YYYY-MM-DD; empty disables
    OpenFirst bool
    Page      int
}

// FilterTicketsByDate keeps tickets whose reported timestamp starts with
// date.  An empty date keeps everything.
func FilterTicketsByDate(tickets []model.Ticket, date string) []model.Ticket {
    out := make([]model.Ticket, 0, len(tickets))
    for _, t := range tickets {
        if date == "" || hasDatePrefix(t.ReportedAt, date) {
            out = append(out, t)
        }
    }
    return out
}

// SortTickets orders tickets in place.  Without openFirst the order is
// newest reported first.  With openFirst open tickets come first, oldest
// reported first, followed by closed tickets newest first.
func SortTickets(tickets []model.Ticket, openFirst bool) {
    sort.SliceStable(tickets, func(i, j int) bool {
        a, b := tickets[i], tickets[j]
        if !openFirst {
            return reportedAfter(a, b)
        }
        if a.IsOpen() != b.IsOpen() {
            return a.IsOpen()
        }
        if a.IsOpen() {
            return reportedAfter(b, a)
        }
        return reportedAfter(a, b)
    })
}

// reportedAfter reports whether a was reported strictly after b.  Missing
// timestamps sort as the zero time.
func reportedAfter(a, b model.Ticket) bool {
    return unix(a.ReportedAt).After(unix(b.ReportedAt))
}

func unix(t *time.Time) time.Time {
    if t == nil {
        return time.Time{}
    }
    return *t
}

// ListTickets filters, sorts and paginates a ticket snapshot.  The input
// slice is not modified.
func ListTickets(tickets []model.Ticket, q TicketQuery) Page[model.Ticket] {
    filtered := FilterTicketsByDate(tickets, q.Date)
    SortTickets(filtered, q.OpenFirst)
    return Paginate(filtered, q.Page, PageSize)
}

// WalkinQuery selects a page of the station walk-in list.
type WalkinQuery struct {
    Date string
    Page int
}

// ListWalkins filters walk-ins by logged-at prefix and paginates them,
// newest first.
func ListWalkins(walkins []model.Walkin, q WalkinQuery) Page[model.Walkin] {
    out := make([]model.Walkin, 0, len(walkins))
    for _, w := range walkins {
        if q.Date == "" || hasDatePrefix(w.LoggedAt, q.Date) {
            out = append(out, w)
        }
    }
    sort.SliceStable(out, func(i, j int) bool {
        return unix(out[i].LoggedAt).After(unix(out[j].LoggedAt))
    })
    return Paginate(out, q.Page, PageSize)
}
