package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_BaselineCoversEveryPosition(t *testing.T) {
	items := []*Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	f, err := Build(items, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, f.Baseline.ToArray())
}

func TestBuild_UniversalEligibility(t *testing.T) {
	items := []*Item{
		{ID: "tagged", Categories: []uint32{4}, Cities: []uint32{10}, Hours: []uint32{9}},
		{ID: "open"},
	}

	f, err := Build(items, []uint32{4, 7})
	require.NoError(t, err)

	for _, c := range []uint32{4, 7} {
		bm, ok := f.CategorySet(c)
		require.True(t, ok, "category %d", c)
		assert.True(t, bm.Contains(1), "unrestricted item in category %d", c)
	}
	for city := 0; city < NumCities; city++ {
		require.True(t, f.CitySet(city).Contains(1), "city %d", city)
	}
	for hour := 0; hour < NumHours; hour++ {
		require.True(t, f.HourSet(hour).Contains(1), "hour %d", hour)
	}
}

func TestBuild_RestrictedDimensions(t *testing.T) {
	items := []*Item{
		{ID: "a", Categories: []uint32{1}, Cities: []uint32{3}, Hours: []uint32{5}},
	}

	f, err := Build(items, []uint32{2})
	require.NoError(t, err)

	cat1, ok := f.CategorySet(1)
	require.True(t, ok)
	assert.True(t, cat1.Contains(0))

	cat2, ok := f.CategorySet(2)
	if ok {
		assert.False(t, cat2.Contains(0))
	}

	assert.True(t, f.CitySet(3).Contains(0))
	assert.False(t, f.CitySet(4).Contains(0))
	assert.True(t, f.HourSet(5).Contains(0))
	for hour := 0; hour < NumHours; hour++ {
		if hour != 5 {
			assert.False(t, f.HourSet(hour).Contains(0), "hour %d", hour)
		}
	}
}

func TestBuild_OutOfRangeDropped(t *testing.T) {
	items := []*Item{
		{ID: "a", Cities: []uint32{NumCities, 12}, Hours: []uint32{NumHours, 3}},
	}

	f, err := Build(items, nil)
	require.NoError(t, err)

	assert.True(t, f.CitySet(12).Contains(0))
	assert.Nil(t, f.CitySet(NumCities))
	for city := 0; city < NumCities; city++ {
		if city != 12 {
			require.False(t, f.CitySet(city).Contains(0), "city %d", city)
		}
	}
	assert.True(t, f.HourSet(3).Contains(0))
	assert.Nil(t, f.HourSet(NumHours))
	assert.Nil(t, f.HourSet(-1))
}

func TestBuild_OnlyOutOfRangeCities(t *testing.T) {
	// A list with no valid entries still counts as a restriction.
	items := []*Item{{ID: "a", Cities: []uint32{NumCities}}}

	f, err := Build(items, nil)
	require.NoError(t, err)
	for city := 0; city < NumCities; city++ {
		require.False(t, f.CitySet(city).Contains(0), "city %d", city)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	items := []*Item{
		{ID: "a", Hours: []uint32{5}},
		{ID: "b", Categories: []uint32{1, 3}},
		{ID: "c", Categories: []uint32{2}, Cities: []uint32{1, 9999}},
		{ID: ""},
	}

	f1, err := Build(items, []uint32{8})
	require.NoError(t, err)
	f2, err := Build(items, []uint32{8})
	require.NoError(t, err)

	assert.True(t, f1.Baseline.Equals(f2.Baseline))
	require.Len(t, f2.Category, len(f1.Category))
	for c, bm := range f1.Category {
		other, ok := f2.Category[c]
		require.True(t, ok, "category %d", c)
		assert.True(t, bm.Equals(other), "category %d", c)
	}
	for i := range f1.City {
		require.True(t, f1.City[i].Equals(f2.City[i]), "city %d", i)
	}
	for i := range f1.Hour {
		assert.True(t, f1.Hour[i].Equals(f2.Hour[i]), "hour %d", i)
	}
}

func TestBuild_Empty(t *testing.T) {
	f, err := Build(nil, []uint32{1})
	require.NoError(t, err)
	assert.True(t, f.Baseline.IsEmpty())
	assert.Empty(t, f.Category)
	assert.True(t, f.HourSet(0).IsEmpty())
}

func TestBuild_CapacityRejected(t *testing.T) {
	items := []*Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	_, err := buildWithLimit(items, nil, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogTooLarge))

	f, err := buildWithLimit(items[:2], nil, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.Baseline.GetCardinality())
}

func TestCategoryUniverse(t *testing.T) {
	assert.Equal(t, []uint32{1, 2, 9}, categoryUniverse([]uint32{9, 1, 2, 9}))
	assert.Empty(t, categoryUniverse(nil))
}

func TestBuild_UnknownToUniverseNotInherited(t *testing.T) {
	// Category 1 is only named by "b"; "a" lists none but 1 is not in the
	// known universe, so "a" must not be eligible under it.
	items := []*Item{
		{ID: "a", Hours: []uint32{5}},
		{ID: "b", Categories: []uint32{1}},
	}

	f, err := Build(items, nil)
	require.NoError(t, err)

	cat1, ok := f.CategorySet(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, cat1.ToArray())

	f, err = Build(items, []uint32{1})
	require.NoError(t, err)
	cat1, _ = f.CategorySet(1)
	assert.Equal(t, []uint32{0, 1}, cat1.ToArray())
}

func BenchmarkBuild(b *testing.B) {
	items := make([]*Item, 10_000)
	for i := range items {
		item := &Item{ID: "ad"}
		if i%3 == 0 {
			item.Categories = []uint32{uint32(i % 50)}
		}
		if i%5 == 0 {
			item.Hours = []uint32{uint32(i % NumHours)}
		}
		if i%7 == 0 {
			item.Cities = []uint32{uint32(i % NumCities)}
		}
		items[i] = item
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(items, nil); err != nil {
			b.Fatal(err)
		}
	}
}
