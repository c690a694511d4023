package handler

import (
    "context"
    "errors"
    "net/http/httptest"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/legacy"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
    "github.com/iliyamo/ev-service-portal/internal/service"
)

var (
    errBoom  = errors.New("boom")
    fixedNow = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
)

func u64(v uint64) *uint64 { return &v }
func f64(v float64) *float64 { return &v }
func at(h int) *time.Time {
    t := fixedNow.Add(time.Duration(h) * time.Hour)
    return &t
}

var (
    managerView = model.ViewState{UserID: 1, Role: model.RoleManager}
    stationView = model.ViewState{UserID: 2, Role: model.RoleStation, StationID: 7}
)

// newCtx builds an echo context for method/target carrying view (when
// non-nil) and the given path params.
func newCtx(method, target, body string, view *model.ViewState) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if view != nil {
        c.Set("view", *view)
        c.Set("user_id", view.UserID)
        c.Set("role", view.Role)
    }
    return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
    c.SetParamNames(name)
    c.SetParamValues(value)
    return c
}

// httpStatus resolves the status of a handler that may answer through an
// *echo.HTTPError instead of writing the response.
func httpStatus(err error, rec *httptest.ResponseRecorder) int {
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code
    }
    return rec.Code
}

type fakeSnapshots struct {
    snap      service.Snapshot
    err       error
    stationID uint64
}

func (f *fakeSnapshots) Load(_ context.Context, sid uint64) (service.Snapshot, error) {
    f.stationID = sid
    return f.snap, f.err
}

type fakeTickets struct {
    list      []model.Ticket
    byID      map[uint64]model.Ticket
    listErr   error
    stationID uint64
}

func (f *fakeTickets) List(_ context.Context, sid uint64) ([]model.Ticket, error) {
    f.stationID = sid
    return f.list, f.listErr
}

func (f *fakeTickets) GetByID(_ context.Context, id uint64) (model.Ticket, error) {
    t, ok := f.byID[id]
    if !ok {
        return t, repository.ErrTicketNotFound
    }
    return t, nil
}

type fakeWalkins struct {
    list      []model.Walkin
    parts     []model.WalkinPart
    stationID uint64
}

func (f *fakeWalkins) List(_ context.Context, sid uint64) ([]model.Walkin, error) {
    f.stationID = sid
    return f.list, nil
}

func (f *fakeWalkins) ListParts(context.Context) ([]model.WalkinPart, error) { return f.parts, nil }

type fakeEngineers struct {
    list      []model.Engineer
    stationID uint64
}

func (f *fakeEngineers) Engineers(_ context.Context, sid uint64) ([]model.Engineer, error) {
    f.stationID = sid
    return f.list, nil
}

type fakeParts struct {
    parts []model.Part
    plate string
    bike  *uint64
}

func (f *fakeParts) ForEntity(_ context.Context, bikeID *uint64, plate string) ([]model.Part, error) {
    f.bike, f.plate = bikeID, plate
    return f.parts, nil
}

type fakeWorkflows struct {
    closeIn  service.CloseTicketInput
    walkinIn service.WalkinInput
    view     model.ViewState
    err      error
}

func (f *fakeWorkflows) CloseTicket(_ context.Context, v model.ViewState, in service.CloseTicketInput) (service.CloseResult, error) {
    f.view, f.closeIn = v, in
    if f.err != nil {
        return service.CloseResult{}, f.err
    }
    return service.CloseResult{Ticket: model.Ticket{ID: in.TicketID, Status: model.TicketClosed}, PartRows: len(in.Parts)}, nil
}

func (f *fakeWorkflows) CreateWalkin(_ context.Context, v model.ViewState, in service.WalkinInput) (service.WalkinResult, error) {
    f.view, f.walkinIn = v, in
    if f.err != nil {
        return service.WalkinResult{}, f.err
    }
    return service.WalkinResult{Walkin: model.Walkin{ID: 99, BikeNumberText: in.Plate, StationID: 7}, PartRows: len(in.Parts)}, nil
}

type fakeCatalog struct {
    parts  []model.Part
    models map[uint64][]string
}

func (f *fakeCatalog) Catalog(context.Context) ([]model.Part, error) { return f.parts, nil }
func (f *fakeCatalog) ModelNamesByPart(context.Context) (map[uint64][]string, error) {
    return f.models, nil
}

type fakeInventory struct{ items []model.InventoryItem }

func (f *fakeInventory) List(context.Context, uint64) ([]model.InventoryItem, error) {
    return f.items, nil
}

type fakeStock struct {
    managerID, id uint64
    mode, raw     string
    err           error
}

func (f *fakeStock) Edit(_ context.Context, managerID, id uint64, mode, raw string) (model.InventoryItem, error) {
    f.managerID, f.id, f.mode, f.raw = managerID, id, mode, raw
    if f.err != nil {
        return model.InventoryItem{}, f.err
    }
    return model.InventoryItem{ID: id}, nil
}

type fakeLegacy struct {
    enabled bool
    list    legacy.TicketList
    err     error
    limit   int
}

func (f *fakeLegacy) Enabled() bool { return f.enabled }
func (f *fakeLegacy) GetTickets(_ context.Context, limit int) (legacy.TicketList, error) {
    f.limit = limit
    return f.list, f.err
}
