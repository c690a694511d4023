package service

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/queue"
    "github.com/iliyamo/ev-service-portal/internal/repository"
)

var errBoom = errors.New("boom")

func u64(v uint64) *uint64 { return &v }

func fixedNow() time.Time { return time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC) }

type fakeTickets struct {
    byID      map[uint64]model.Ticket
    parts     []model.TicketPart
    closed    []uint64
    created   []model.Ticket
    partErr   error
    closeErr  error
    createErr error
    nextID    uint64
}

func (f *fakeTickets) GetByID(_ context.Context, id uint64) (model.Ticket, error) {
    t, ok := f.byID[id]
    if !ok {
        return model.Ticket{}, repository.ErrTicketNotFound
    }
    return t, nil
}

func (f *fakeTickets) InsertPart(_ context.Context, p model.TicketPart) error {
    if f.partErr != nil {
        return f.partErr
    }
    f.parts = append(f.parts, p)
    return nil
}

func (f *fakeTickets) Close(_ context.Context, id, engineerID uint64, cost float64, at time.Time) error {
    if f.closeErr != nil {
        return f.closeErr
    }
    f.closed = append(f.closed, id)
    t := f.byID[id]
    t.Status = model.TicketClosed
    t.ClosedBy, t.CostCharged, t.ClosedAt = &engineerID, &cost, &at
    f.byID[id] = t
    return nil
}

func (f *fakeTickets) Create(_ context.Context, t *model.Ticket) error {
    if f.createErr != nil {
        return f.createErr
    }
    f.nextID++
    t.ID = f.nextID
    f.created = append(f.created, *t)
    return nil
}

type fakeWalkins struct {
    created []model.Walkin
    parts   []model.WalkinPart
    err     error
}

func (f *fakeWalkins) Create(_ context.Context, w *model.Walkin) error {
    if f.err != nil {
        return f.err
    }
    w.ID = uint64(len(f.created) + 100)
    f.created = append(f.created, *w)
    return nil
}

func (f *fakeWalkins) InsertPart(_ context.Context, p model.WalkinPart) error {
    f.parts = append(f.parts, p)
    return nil
}

type fakeBikes struct {
    byID    map[uint64]model.Bike
    byPlate map[string]model.Bike
    err     error
}

func (f *fakeBikes) GetByID(_ context.Context, id uint64) (model.Bike, error) {
    if f.err != nil {
        return model.Bike{}, f.err
    }
    b, ok := f.byID[id]
    if !ok {
        return model.Bike{}, repository.ErrBikeNotFound
    }
    return b, nil
}

func (f *fakeBikes) GetByPlate(_ context.Context, plate string) (model.Bike, error) {
    if f.err != nil {
        return model.Bike{}, f.err
    }
    b, ok := f.byPlate[plate]
    if !ok {
        return model.Bike{}, repository.ErrBikeNotFound
    }
    return b, nil
}

type fakeEngineers map[uint64]model.Engineer

func (f fakeEngineers) Engineer(_ context.Context, id uint64) (model.Engineer, error) {
    e, ok := f[id]
    if !ok {
        return model.Engineer{}, repository.ErrEngineerNotFound
    }
    return e, nil
}

type fakePublisher struct {
    events []queue.Event
    err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.Event) error {
    f.events = append(f.events, ev)
    return f.err
}

type fakeCatalog struct {
    all      []model.Part
    byModel  map[uint64][]model.Part
    modelErr error
    calls    []uint64
}

func (f *fakeCatalog) Catalog(context.Context) ([]model.Part, error) { return f.all, nil }

func (f *fakeCatalog) ByModel(_ context.Context, modelID uint64) ([]model.Part, error) {
    f.calls = append(f.calls, modelID)
    if f.modelErr != nil {
        return nil, f.modelErr
    }
    return f.byModel[modelID], nil
}
