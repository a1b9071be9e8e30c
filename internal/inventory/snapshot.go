package inventory

import (
	"sync/atomic"
	"time"

	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/rs/zerolog"
)

// Snapshot is an immutable {items, index} pair. Positions in Filters are
// only meaningful against Items of the same snapshot.
type Snapshot struct {
	Items   []*Item
	Filters *Filters
	Version uint64
	BuiltAt time.Time
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Items)
}

// emptySnapshot is served until the first rebuild succeeds.
func emptySnapshot() *Snapshot {
	f, _ := Build(nil, nil)
	return &Snapshot{Filters: f}
}

// Store publishes snapshots through a single atomic pointer. Readers never
// block and never observe a partially built snapshot; a superseded snapshot
// stays valid for as long as a reader holds it.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	known  []uint32
	limit  uint64
	logger zerolog.Logger
}

// NewStore returns a Store holding an empty snapshot. known is the category
// universe applied to items that do not list categories.
func NewStore(logger zerolog.Logger, known []uint32) *Store {
	s := &Store{
		known:  append([]uint32(nil), known...),
		limit:  MaxItems,
		logger: logger.With().Str("component", "inventory").Logger(),
	}
	s.current.Store(emptySnapshot())
	return s
}

// Load returns the current snapshot. Callers should load once per query and
// use the returned reference throughout.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Publish installs snap as the current snapshot and stamps its version.
// snap must not be modified afterwards.
func (s *Store) Publish(snap *Snapshot) {
	snap.Version = s.version.Add(1)
	s.current.Store(snap)

	metrics.SnapshotItems.Set(float64(snap.Len()))
	metrics.SnapshotVersion.Set(float64(snap.Version))
}

// Rebuild indexes items off to the side and publishes the result. On error
// the current snapshot is left in place.
func (s *Store) Rebuild(items []*Item) (*Snapshot, error) {
	start := time.Now()
	filters, err := buildWithLimit(items, s.known, s.limit)
	if err != nil {
		metrics.SnapshotRebuildsTotal.WithLabelValues("rejected").Inc()
		s.logger.Error().
			Err(err).
			Int("items", len(items)).
			Uint64("limit", s.limit).
			Msg("inventory rebuild rejected")
		return nil, err
	}
	metrics.SnapshotBuildSeconds.Observe(time.Since(start).Seconds())

	snap := &Snapshot{
		Items:   items,
		Filters: filters,
		BuiltAt: time.Now(),
	}
	s.Publish(snap)
	metrics.SnapshotRebuildsTotal.WithLabelValues("ok").Inc()

	s.logger.Info().
		Int("items", snap.Len()).
		Int("categories", len(filters.Category)).
		Uint64("version", snap.Version).
		Dur("took", time.Since(start)).
		Msg("inventory updated")
	return snap, nil
}
