package service

import (
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// ItemIndex partitions admitted catalog ids into the 14 quality buckets.
// Built once; a reseed is a full rebuild.
type ItemIndex struct {
	mu   sync.RWMutex
	bins model.BucketMap[[]uint32]
}

func NewItemIndex() *ItemIndex {
	return &ItemIndex{}
}

// Build filters the catalog and fills the buckets. Returns false when nothing was admitted.
func (idx *ItemIndex) Build(catalog []model.CatalogEntry, filter ItemFilter) bool {
	var bins model.BucketMap[[]uint32]
	for i := range catalog {
		entry := &catalog[i]
		if entry.ID == 0 {
			continue
		}
		if !filter.Accept(entry) {
			continue
		}
		key := entry.Bucket()
		bins.Set(key, append(bins.Get(key), entry.ID))
	}

	idx.mu.Lock()
	idx.bins = bins
	idx.mu.Unlock()

	total := idx.Total()
	log := logger.Component("index")
	if total == 0 {
		log.Error("no items admitted to the index")
		return false
	}
	args := []any{"total", total, "disabled_ids", len(filter.DisabledItems)}
	for _, key := range model.AllBuckets() {
		args = append(args, key.String(), idx.Size(key))
	}
	log.Info("item index built", args...)
	return true
}

// SampleBucket picks a uniform id from the bucket.
func (idx *ItemIndex) SampleBucket(key model.BucketKey, rng RNG) (uint32, bool) {
	if !key.Valid() {
		return 0, false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bin := idx.bins.Get(key)
	if len(bin) == 0 {
		return 0, false
	}
	return bin[rng.IntRange(0, len(bin)-1)], true
}

func (idx *ItemIndex) Size(key model.BucketKey) int {
	if !key.Valid() {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.bins.Get(key))
}

func (idx *ItemIndex) Total() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	total := 0
	for _, bin := range idx.bins.Flat() {
		total += len(bin)
	}
	return total
}

// Sizes reports bucket sizes keyed by bucket name.
func (idx *ItemIndex) Sizes() map[string]int {
	out := make(map[string]int, model.BucketCount)
	for _, key := range model.AllBuckets() {
		out[key.String()] = idx.Size(key)
	}
	return out
}

// Members returns a copy of one bucket.
func (idx *ItemIndex) Members(key model.BucketKey) []uint32 {
	if !key.Valid() {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bin := idx.bins.Get(key)
	out := make([]uint32, len(bin))
	copy(out, bin)
	return out
}
