package pool

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// BitmapPool recycles *roaring.Bitmap query masks to keep the Fill path
// free of per-request container allocations.
type BitmapPool struct {
	pool sync.Pool
}

// NewBitmapPool returns an empty pool.
func NewBitmapPool() *BitmapPool {
	return &BitmapPool{
		pool: sync.Pool{
			New: func() any {
				return roaring.New()
			},
		},
	}
}

var masks = NewBitmapPool()

// PutBitmap returns a bitmap to the global pool.
func PutBitmap(bm *roaring.Bitmap) {
	masks.Put(bm)
}

// CloneInto returns a pooled bitmap holding the members of src.
// The caller owns the result and must hand it back with PutBitmap.
func CloneInto(src *roaring.Bitmap) *roaring.Bitmap {
	bm := masks.Get()
	if src != nil {
		bm.Or(src)
	}
	return bm
}

// Get retrieves an empty bitmap from the pool.
func (p *BitmapPool) Get() *roaring.Bitmap {
	return p.pool.Get().(*roaring.Bitmap)
}

// Put clears bm and returns it to the pool. Bitmaps still referenced
// elsewhere (published index bitmaps in particular) must never be put.
func (p *BitmapPool) Put(bm *roaring.Bitmap) {
	if bm == nil {
		return
	}
	bm.Clear()
	p.pool.Put(bm)
}
