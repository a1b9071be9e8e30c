// Package engine answers Fill queries against the published inventory.
package engine

import (
	"github.com/23skdu/adfiller/internal/inventory"
	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/23skdu/adfiller/internal/pool"
)

// SnapshotSource hands out the currently published snapshot.
type SnapshotSource interface {
	Load() *inventory.Snapshot
}

// HourSource reports the current hour of day in [0, 24).
type HourSource interface {
	Hour() int
}

// Engine intersects the filter bitmaps of one snapshot. It never blocks and
// never fails; an unmatched request yields an empty result.
type Engine struct {
	inventory SnapshotSource
	clock     HourSource
}

// New returns an Engine reading from inv and clk.
func New(inv SnapshotSource, clk HourSource) *Engine {
	return &Engine{inventory: inv, clock: clk}
}

// Fill returns the ids of items eligible under every requested category at
// the current hour, in ascending position order.
func (e *Engine) Fill(categories []uint32) []string {
	// One load per query: a concurrent publish must not mix bitmaps from one
	// snapshot with items from another.
	return fill(e.inventory.Load(), categories, e.clock)
}

func fill(snap *inventory.Snapshot, categories []uint32, clock HourSource) []string {
	f := snap.Filters
	mask := pool.CloneInto(f.Baseline)
	defer pool.PutBitmap(mask)

	for _, c := range categories {
		bm, ok := f.CategorySet(c)
		if !ok {
			// Unseen category, no restriction.
			continue
		}
		mask.And(bm)
		if mask.IsEmpty() {
			metrics.FillShortCircuitTotal.Inc()
			return nil
		}
	}

	hourSet := f.HourSet(clock.Hour())
	if hourSet == nil {
		return nil
	}
	mask.And(hourSet)

	ids := make([]string, 0, mask.GetCardinality())
	it := mask.Iterator()
	for it.HasNext() {
		item := snap.Items[it.Next()]
		if item.ID == "" {
			continue
		}
		ids = append(ids, item.ID)
	}
	return ids
}
