package repository

import (
    "database/sql"
    "time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func uintPtr(v sql.NullInt64) *uint64 {
    if !v.Valid {
        return nil
    }
    u := uint64(v.Int64)
    return &u
}

func intPtr(v sql.NullInt64) *int {
    if !v.Valid {
        return nil
    }
    n := int(v.Int64)
    return &n
}

func timePtr(v sql.NullTime) *time.Time {
    if !v.Valid {
        return nil
    }
    t := v.Time.UTC()
    return &t
}

func strPtr(v sql.NullString) *string {
    if !v.Valid {
        return nil
    }
    s := v.String
    return &s
}

func floatPtr(v sql.NullFloat64) *float64 {
    if !v.Valid {
        return nil
    }
    f := v.Float64
    return &f
}

// nullable converts an optional id into a driver value.
func nullable(v *uint64) any {
    if v == nil {
        return nil
    }
    return *v
}
