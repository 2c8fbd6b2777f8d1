package model

import "fmt"

// GoodsClass splits the catalog into stackable trade goods and everything else.
type GoodsClass uint8

const (
	GoodsBulk GoodsClass = iota
	GoodsDurable
)

const GoodsClassCount = 2

// BucketCount is GoodsClassCount * QualityCount.
const BucketCount = GoodsClassCount * QualityCount

func (g GoodsClass) String() string {
	if g == GoodsBulk {
		return "tradegoods"
	}
	return "items"
}

// BucketKey addresses one of the 14 quality buckets.
type BucketKey struct {
	Goods   GoodsClass `json:"goods"`
	Quality Quality    `json:"quality"`
}

// Index keeps the flat addressing: quality for trade goods, quality+7 otherwise.
func (k BucketKey) Index() int {
	return int(k.Goods)*QualityCount + int(k.Quality)
}

func (k BucketKey) Valid() bool {
	return k.Goods < GoodsClassCount && k.Quality.Valid()
}

func (k BucketKey) String() string {
	return fmt.Sprintf("%s_%s", k.Quality.Color(), k.Goods)
}

// BucketFromIndex is the inverse of Index.
func BucketFromIndex(i int) (BucketKey, bool) {
	if i < 0 || i >= BucketCount {
		return BucketKey{}, false
	}
	return BucketKey{Goods: GoodsClass(i / QualityCount), Quality: Quality(i % QualityCount)}, true
}

// AllBuckets lists every key in flat index order.
func AllBuckets() []BucketKey {
	keys := make([]BucketKey, 0, BucketCount)
	for i := 0; i < BucketCount; i++ {
		k, _ := BucketFromIndex(i)
		keys = append(keys, k)
	}
	return keys
}

// BucketMap is a {goods, quality} -> T table.
type BucketMap[T any] struct {
	cells [GoodsClassCount][QualityCount]T
}

func (m *BucketMap[T]) Get(k BucketKey) T {
	return m.cells[k.Goods][k.Quality]
}

func (m *BucketMap[T]) Set(k BucketKey, v T) {
	m.cells[k.Goods][k.Quality] = v
}

// Ptr exposes the cell for in-place updates (atomics, slices).
func (m *BucketMap[T]) Ptr(k BucketKey) *T {
	return &m.cells[k.Goods][k.Quality]
}

// Flat returns the values in flat index order.
func (m *BucketMap[T]) Flat() []T {
	out := make([]T, 0, BucketCount)
	for g := 0; g < GoodsClassCount; g++ {
		out = append(out, m.cells[g][:]...)
	}
	return out
}

// BucketMapFromFlat builds a map from 14 values in flat order; missing values stay zero.
func BucketMapFromFlat[T any](values []T) BucketMap[T] {
	var m BucketMap[T]
	for i, v := range values {
		k, ok := BucketFromIndex(i)
		if !ok {
			break
		}
		m.Set(k, v)
	}
	return m
}
