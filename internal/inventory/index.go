package inventory

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	// NumCities is the size of the city dimension; valid ids are [0, NumCities).
	NumCities = 10_000
	// NumHours is the size of the hour dimension; valid hours are [0, NumHours).
	NumHours = 24
	// MaxItems bounds a catalog: positions are uint32 and a catalog must hold
	// strictly fewer items than this.
	MaxItems uint64 = math.MaxUint32
)

// ErrCatalogTooLarge is returned when a catalog holds more items than a
// bitmap position can address.
var ErrCatalogTooLarge = errors.New("catalog exceeds maximum indexable items")

// Filters is the per-dimension inverted index of one snapshot. Bitmap
// members are positions in that snapshot's item list.
type Filters struct {
	Baseline *roaring.Bitmap
	Category map[uint32]*roaring.Bitmap
	City     [NumCities]*roaring.Bitmap
	Hour     [NumHours]*roaring.Bitmap
}

// NewFilters returns an index with every slot allocated and empty.
func NewFilters() *Filters {
	f := &Filters{
		Baseline: roaring.New(),
		Category: make(map[uint32]*roaring.Bitmap),
	}
	for i := range f.City {
		f.City[i] = roaring.New()
	}
	for i := range f.Hour {
		f.Hour[i] = roaring.New()
	}
	return f
}

// CategorySet returns the bitmap of positions eligible under category c.
func (f *Filters) CategorySet(c uint32) (*roaring.Bitmap, bool) {
	bm, ok := f.Category[c]
	return bm, ok
}

// HourSet returns the bitmap for hour h, or nil when h is out of range.
func (f *Filters) HourSet(h int) *roaring.Bitmap {
	if h < 0 || h >= NumHours {
		return nil
	}
	return f.Hour[h]
}

// CitySet returns the bitmap for city c, or nil when c is out of range.
func (f *Filters) CitySet(c int) *roaring.Bitmap {
	if c < 0 || c >= NumCities {
		return nil
	}
	return f.City[c]
}

// Build indexes items into a fresh Filters. known is the category universe:
// an item without categories is eligible under every known category, but
// not under categories that only other items name.
func Build(items []*Item, known []uint32) (*Filters, error) {
	return buildWithLimit(items, known, MaxItems)
}

func buildWithLimit(items []*Item, known []uint32, limit uint64) (*Filters, error) {
	n := uint64(len(items))
	if n >= limit {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrCatalogTooLarge, n, limit)
	}

	f := NewFilters()
	f.Baseline.AddRange(0, n)

	universe := categoryUniverse(known)
	anyCity := roaring.New()
	anyHour := roaring.New()

	for i, item := range items {
		pos := uint32(i)

		cats := item.Categories
		if len(cats) == 0 {
			cats = universe
		}
		for _, c := range cats {
			bm, ok := f.Category[c]
			if !ok {
				bm = roaring.New()
				f.Category[c] = bm
			}
			bm.Add(pos)
		}

		if len(item.Cities) == 0 {
			anyCity.Add(pos)
		}
		for _, c := range item.Cities {
			if c < NumCities {
				f.City[c].Add(pos)
			}
		}

		if len(item.Hours) == 0 {
			anyHour.Add(pos)
		}
		for _, h := range item.Hours {
			if h < NumHours {
				f.Hour[h].Add(pos)
			}
		}
	}

	// Unrestricted items land in every slot of their dimension.
	anyCity.RunOptimize()
	anyHour.RunOptimize()
	for _, bm := range f.City {
		bm.Or(anyCity)
		bm.RunOptimize()
	}
	for _, bm := range f.Hour {
		bm.Or(anyHour)
		bm.RunOptimize()
	}
	for _, bm := range f.Category {
		bm.RunOptimize()
	}
	f.Baseline.RunOptimize()

	return f, nil
}

// categoryUniverse returns known sorted and without duplicates.
func categoryUniverse(known []uint32) []uint32 {
	universe := slices.Clone(known)
	slices.Sort(universe)
	return slices.Compact(universe)
}
