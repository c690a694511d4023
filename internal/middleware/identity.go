package middleware

// identity.go turns an authenticated user id into the ViewState handlers
// dispatch on.  The users row is read on every request so a role or
// station change takes effect without waiting for the token to expire.

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
)

// UserLoader reads a user by id.
type UserLoader interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// ResolveView loads the signed-in user and stores its model.ViewState
// under "view".  Unknown or inactive users get 401; station staff without
// a station get 403.  It must run after JWTAuth.
func ResolveView(users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, ok := c.Get(ctxUserID).(uint64)
            if !ok || uid == 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            u, err := users.GetByID(ctx, uid)
            if errors.Is(err, repository.ErrUserNotFound) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            if err != nil {
                log.Printf("view: load user %d: %v", uid, err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
            }
            if !u.IsActive {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
            }
            view, ok := model.ViewStateFor(u)
            if !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "no station assigned to this account"})
            }
            c.Set(ctxView, view)
            c.Set(ctxRole, view.Role)
            return next(c)
        }
    }
}

// View returns the ViewState stored by ResolveView.
func View(c echo.Context) (model.ViewState, bool) {
    v, ok := c.Get(ctxView).(model.ViewState)
    return v, ok
}

// userID renders the authenticated user id for rate limit and cache
// keys, or "anon" when the request is not authenticated.
func userID(c echo.Context) string {
    switch v := c.Get(ctxUserID).(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
