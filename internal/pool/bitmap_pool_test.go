package pool

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
)

func TestBitmapPool(t *testing.T) {
	bm1 := CloneInto(nil)
	assert.NotNil(t, bm1)
	assert.Equal(t, uint64(0), bm1.GetCardinality(), "New bitmap should be empty")

	bm1.Add(1)
	bm1.Add(100)
	assert.Equal(t, uint64(2), bm1.GetCardinality())

	PutBitmap(bm1)

	bm2 := CloneInto(nil)
	assert.NotNil(t, bm2)
	assert.Equal(t, uint64(0), bm2.GetCardinality(), "Recycled bitmap should be cleared")
}

func TestCloneIntoLeavesSourceUntouched(t *testing.T) {
	src := roaring.BitmapOf(0, 1, 2, 70000)

	mask := CloneInto(src)
	assert.True(t, mask.Equals(src))

	mask.And(roaring.BitmapOf(1))
	assert.Equal(t, []uint32{1}, mask.ToArray())
	assert.Equal(t, []uint32{0, 1, 2, 70000}, src.ToArray(), "source must not share containers with the mask")

	PutBitmap(mask)
	assert.Equal(t, uint64(4), src.GetCardinality())
}

func TestCloneIntoNil(t *testing.T) {
	mask := CloneInto(nil)
	defer PutBitmap(mask)
	assert.True(t, mask.IsEmpty())
}

func TestPutNil(t *testing.T) {
	assert.NotPanics(t, func() { PutBitmap(nil) })
}

func BenchmarkCloneInto(b *testing.B) {
	src := roaring.New()
	src.AddRange(0, 1<<20)
	src.RunOptimize()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mask := CloneInto(src)
		PutBitmap(mask)
	}
}
