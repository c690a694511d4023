package service

import (
    "context"

    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/ev-service-portal/internal/model"
)

// Readers are the list queries behind the dashboards.  A station id of 0
// means every station.
type TicketLister interface {
    List(ctx context.Context, stationID uint64) ([]model.Ticket, error)
}

type WalkinLister interface {
    List(ctx context.Context, stationID uint64) ([]model.Walkin, error)
    ListParts(ctx context.Context) ([]model.WalkinPart, error)
}

type StationLister interface {
    List(ctx context.Context) ([]model.Station, error)
    Engineers(ctx context.Context, stationID uint64) ([]model.Engineer, error)
}

// Snapshot is one consistent-enough read of a station (or all stations).
type Snapshot struct {
    Tickets   []model.Ticket
    Walkins   []model.Walkin
    Engineers []model.Engineer
    Stations  []model.Station
}

// EngineerNames maps engineer ids to names.
func (s Snapshot) EngineerNames() map[uint64]string {
    out := make(map[uint64]string, len(s.Engineers))
    for _, e := range s.Engineers {
        out[e.ID] = e.Name
    }
    return out
}

// StationNames maps station ids to names.
func (s Snapshot) StationNames() map[uint64]string {
    out := make(map[uint64]string, len(s.Stations))
    for _, st := range s.Stations {
        out[st.ID] = st.Name
    }
    return out
}

// Loader fetches dashboard snapshots.
type Loader struct {
    Tickets  TicketLister
    Walkins  WalkinLister
    Stations StationLister
}

// Load reads tickets, walk-ins, engineers and stations concurrently.  The
// first failing read cancels the others and its error is returned.
func (l *Loader) Load(ctx context.Context, stationID uint64) (Snapshot, error) {
    var s Snapshot
    g, ctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) {
        s.Tickets, err = l.Tickets.List(ctx, stationID)
        return err
    })
    g.Go(func() (err error) {
        s.Walkins, err = l.Walkins.List(ctx, stationID)
        return err
    })
    g.Go(func() (err error) {
        s.Engineers, err = l.Stations.Engineers(ctx, stationID)
        return err
    })
    g.Go(func() (err error) {
        s.Stations, err = l.Stations.List(ctx)
        return err
    })
    if err := g.Wait(); err != nil {
        return Snapshot{}, err
    }
    return s, nil
}
