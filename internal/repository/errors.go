// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that a station user tried to act on a
// record that belongs to another station, while the Err*NotFound values
// map to HTTP 404.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a record outside their station. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

var (
    ErrTicketNotFound    = errors.New("ticket not found")
    ErrBikeNotFound      = errors.New("bike not found")
    ErrEngineerNotFound  = errors.New("engineer not found")
    ErrStationNotFound   = errors.New("station not found")
    ErrInventoryNotFound = errors.New("inventory item not found")
    ErrUserNotFound      = errors.New("user not found")
)

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrRefreshInvalid covers unknown, revoked and expired refresh tokens.
var ErrRefreshInvalid = errors.New("invalid refresh token")
