package repository

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/metrics"
)

// Snapshot is an immutable index of one weekly participant table.
type Snapshot struct {
	// per person, ascending by week
	ByPerson map[string][]model.PlayerWeek
	// per week, publication order
	ByWeek map[time.Time][]model.PlayerWeek
	Latest time.Time
	Rows   int
}

// SnapshotStore serves lookups from the last published Snapshot. Publish
// swaps the snapshot atomically, so readers never observe a partial table.
type SnapshotStore struct {
	personHint int
	snapshot   atomic.Pointer[Snapshot]
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{personHint: 1024}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{
		ByPerson: map[string][]model.PlayerWeek{},
		ByWeek:   map[time.Time][]model.PlayerWeek{},
	})
	return s
}

// Publish indexes rows and replaces the current snapshot.
func (s *SnapshotStore) Publish(rows []model.PlayerWeek) {
	start := time.Now()

	snap := &Snapshot{
		ByPerson: make(map[string][]model.PlayerWeek, s.personHint),
		ByWeek:   make(map[time.Time][]model.PlayerWeek),
		Rows:     len(rows),
	}
	for _, r := range rows {
		snap.ByPerson[r.PersonID] = append(snap.ByPerson[r.PersonID], r)
		snap.ByWeek[r.Week] = append(snap.ByWeek[r.Week], r)
		if r.Week.After(snap.Latest) {
			snap.Latest = r.Week
		}
	}
	for _, series := range snap.ByPerson {
		sort.SliceStable(series, func(i, j int) bool { return series[i].Week.Before(series[j].Week) })
	}

	s.snapshot.Store(snap)
	metrics.ObserveStageDuration("index", time.Since(start))
}

// NextOnOrAfter implements Store.NextOnOrAfter in O(log n) per person.
func (s *SnapshotStore) NextOnOrAfter(_ context.Context, personID string, date time.Time) (model.PlayerWeek, bool) {
	series := s.snapshot.Load().ByPerson[personID]
	i := sort.Search(len(series), func(i int) bool { return !series[i].Week.Before(date) })
	if i == len(series) {
		return model.PlayerWeek{}, false
	}
	return series[i], true
}

// LatestWeek implements Store.LatestWeek.
func (s *SnapshotStore) LatestWeek(_ context.Context) (time.Time, error) {
	snap := s.snapshot.Load()
	if snap.Rows == 0 {
		return time.Time{}, ErrEmpty
	}
	return snap.Latest, nil
}

// Week implements Store.Week. The returned slice must not be modified.
func (s *SnapshotStore) Week(_ context.Context, week time.Time) ([]model.PlayerWeek, error) {
	rows, ok := s.snapshot.Load().ByWeek[model.Day(week)]
	if !ok {
		return nil, ErrNotFound
	}
	return rows, nil
}

// Count implements Store.Count.
func (s *SnapshotStore) Count(_ context.Context) int {
	return s.snapshot.Load().Rows
}
