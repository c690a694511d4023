package model

import "time"

// Role names stored in users.role.
const (
    RoleManager = "manager"
    RoleStation = "station"
)

// User represents an application user record as stored in the
// `users` table.  Station staff carry the station they work at;
// managers have no station and see every station.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – manager or station.
//  StationID    – stations.id for station staff, nil for managers.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64
    Email        string
    PasswordHash string
    Role         string
    StationID    *uint64
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// ViewState is the resolved view a signed-in user is entitled to.  It is
// computed once per request after authentication and is either
// {Role: manager} or {Role: station, StationID: n}.
type ViewState struct {
    UserID    uint64 `json:"user_id"`
    Role      string `json:"role"`
    StationID uint64 `json:"station_id,omitempty"`
}

// IsManager reports whether the view spans all stations.
func (v ViewState) IsManager() bool { return v.Role == RoleManager }

// ViewStateFor derives the view for a user row.  ok is false when the row
// cannot be mapped to a view, e.g. station staff with no station.
func ViewStateFor(u User) (ViewState, bool) {
    switch u.Role {
    case RoleManager:
        return ViewState{UserID: u.ID, Role: RoleManager}, true
    case RoleStation:
        if u.StationID == nil || *u.StationID == 0 {
            return ViewState{}, false
        }
        return ViewState{UserID: u.ID, Role: RoleStation, StationID: *u.StationID}, true
    }
    return ViewState{}, false
}
