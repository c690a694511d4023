package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/middleware"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
    "github.com/iliyamo/ev-service-portal/internal/service"
)

// requestTimeout bounds the store calls of a single request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// currentView returns the ViewState resolved by middleware.ResolveView.
func currentView(c echo.Context) (model.ViewState, error) {
    v, ok := middleware.View(c)
    if !ok {
        return v, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
    }
    return v, nil
}

// scopeStation is the station a request reads.  Station users always see
// their own station; managers see every station unless they pass
// ?station_id.
func scopeStation(c echo.Context, v model.ViewState) uint64 {
    if !v.IsManager() {
        return v.StationID
    }
    return queryUint(c, "station_id")
}

// parseID parses a positive path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// queryUint returns a non-negative integer query parameter or 0.
func queryUint(c echo.Context, name string) uint64 {
    n, _ := strconv.ParseUint(strings.TrimSpace(c.QueryParam(name)), 10, 64)
    return n
}

func queryPage(c echo.Context) int {
    p, err := strconv.Atoi(c.QueryParam("page"))
    if err != nil {
        return 1
    }
    return p
}

func queryBool(c echo.Context, name string) bool {
    b, _ := strconv.ParseBool(c.QueryParam(name))
    return b
}

// queryDate parses a YYYY-MM-DD query parameter as midnight UTC.
func queryDate(c echo.Context, name string) (*time.Time, error) {
    s := strings.TrimSpace(c.QueryParam(name))
    if s == "" {
        return nil, nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// errorStatus maps service and repository errors to HTTP status codes.
func errorStatus(err error) int {
    switch {
    case errors.Is(err, service.ErrValidation):
        return http.StatusBadRequest
    case errors.Is(err, repository.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, repository.ErrTicketNotFound),
        errors.Is(err, repository.ErrInventoryNotFound),
        errors.Is(err, repository.ErrStationNotFound),
        errors.Is(err, repository.ErrUserNotFound):
        return http.StatusNotFound
    default:
        return http.StatusInternalServerError
    }
}

// writeFailure answers a failed workflow with its status line.
func writeFailure(c echo.Context, what string, err error) error {
    status := errorStatus(err)
    if status == http.StatusInternalServerError {
        log.Printf("%s: %v", what, err)
    }
    return c.JSON(status, echo.Map{"message": service.Message("", err), "error": err.Error()})
}

// loadFailed answers a failed read.
func loadFailed(c echo.Context, what string, err error) error {
    status := errorStatus(err)
    if status == http.StatusInternalServerError {
        log.Printf("%s: %v", what, err)
        return c.JSON(status, echo.Map{"error": "failed to load " + what})
    }
    return c.JSON(status, echo.Map{"error": err.Error()})
}
