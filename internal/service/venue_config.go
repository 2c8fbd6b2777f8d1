package service

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

var (
	defaultMinPrice = [model.QualityCount]uint32{100, 150, 200, 250, 300, 400, 500}
	defaultMaxPrice = [model.QualityCount]uint32{150, 250, 300, 350, 450, 550, 650}

	// written before the raw percentages whenever they do not sum to 100
	fallbackPercentages = [model.BucketCount]uint32{0, 27, 12, 10, 1, 0, 0, 0, 10, 30, 8, 2, 0, 0}

	commonBulkBucket   = model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}
	uncommonBulkBucket = model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityUncommon}
)

// VenueConfig is the tunable and observed state of one venue.
// Tunables are guarded by mu; observed counts are per-slot atomics because the
// marketplace hooks update them outside the simulation goroutine.
type VenueConfig struct {
	venue model.VenueID
	name  string

	mu          sync.RWMutex
	minItems    uint32
	maxItems    uint32
	percentages model.BucketMap[uint32]
	quotas      model.BucketMap[uint32]
	minPrice    [model.QualityCount]uint32
	maxPrice    [model.QualityCount]uint32
	minBidPrice [model.QualityCount]uint32
	maxBidPrice [model.QualityCount]uint32
	maxStack    [model.QualityCount]uint32
	buyerPrice  [model.QualityCount]float64

	biddingInterval time.Duration
	bidsPerInterval uint32

	counts model.BucketMap[atomic.Int64]
}

func NewVenueConfig(venue model.VenueID) *VenueConfig {
	return &VenueConfig{venue: venue, name: venue.String()}
}

func (c *VenueConfig) Venue() model.VenueID { return c.venue }

func (c *VenueConfig) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *VenueConfig) SetMinItems(v uint32) {
	c.mu.Lock()
	c.minItems = v
	c.mu.Unlock()
}

func (c *VenueConfig) SetMaxItems(v uint32) {
	c.mu.Lock()
	c.maxItems = v
	c.mu.Unlock()
}

// GetMinItems clamps on read: an unset min means "keep full", a min above max collapses to max.
func (c *VenueConfig) GetMinItems() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.minItems == 0 && c.maxItems != 0:
		return c.maxItems
	case c.maxItems != 0 && c.minItems > c.maxItems:
		return c.maxItems
	}
	return c.minItems
}

func (c *VenueConfig) GetMaxItems() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxItems
}

// SetPercentages installs a flat 14-entry distribution and recomputes quotas.
// A zero sum disables the venue; any other sum than 100 is accepted but logged.
func (c *VenueConfig) SetPercentages(pcts [model.BucketCount]uint32) {
	var total uint32
	for _, p := range pcts {
		total += p
	}

	c.mu.Lock()
	switch {
	case total == 0:
		c.maxItems = 0
	case total != 100:
		logger.Component("venue").Warn("percentages do not sum to 100",
			"venue", c.venue.String(), "sum", total)
		c.percentages = model.BucketMapFromFlat(fallbackPercentages[:])
	}
	c.percentages = model.BucketMapFromFlat(pcts[:])
	c.calculatePercentsLocked()
	c.mu.Unlock()
}

func (c *VenueConfig) GetPercentages(k model.BucketKey) uint32 {
	if !k.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.percentages.Get(k)
}

func (c *VenueConfig) CalculatePercents() {
	c.mu.Lock()
	c.calculatePercentsLocked()
	c.mu.Unlock()
}

func (c *VenueConfig) calculatePercentsLocked() {
	var sum int64
	for _, k := range model.AllBuckets() {
		target := uint32(math.Floor(float64(c.percentages.Get(k)) / 100 * float64(c.maxItems)))
		c.quotas.Set(k, target)
		sum += int64(target)
	}

	diff := int64(c.maxItems) - sum
	switch {
	case diff < 0:
		// subtracting a negative diff grows the common tier
		if int64(c.quotas.Get(commonBulkBucket))-diff > 0 {
			c.quotas.Set(commonBulkBucket, uint32(int64(c.quotas.Get(commonBulkBucket))-diff))
		} else if int64(c.quotas.Get(uncommonBulkBucket))-diff > 0 {
			c.quotas.Set(uncommonBulkBucket, uint32(int64(c.quotas.Get(uncommonBulkBucket))-diff))
		}
	case diff > 0:
		// floor remainder goes to the largest configured bucket
		best := commonBulkBucket
		for _, k := range model.AllBuckets() {
			if c.percentages.Get(k) > c.percentages.Get(best) {
				best = k
			}
		}
		c.quotas.Set(best, c.quotas.Get(best)+uint32(diff))
	}
}

// GetQuota is the absolute listing target for a bucket.
func (c *VenueConfig) GetQuota(k model.BucketKey) uint32 {
	if !k.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quotas.Get(k)
}

func (c *VenueConfig) SetMinPrice(q model.Quality, v uint32) { c.setQuality(&c.minPrice, q, v) }
func (c *VenueConfig) SetMaxPrice(q model.Quality, v uint32) { c.setQuality(&c.maxPrice, q, v) }
func (c *VenueConfig) SetMinBidPrice(q model.Quality, v uint32) {
	c.setQuality(&c.minBidPrice, q, v)
}
func (c *VenueConfig) SetMaxBidPrice(q model.Quality, v uint32) {
	c.setQuality(&c.maxBidPrice, q, v)
}
func (c *VenueConfig) SetMaxStack(q model.Quality, v uint32) { c.setQuality(&c.maxStack, q, v) }

func (c *VenueConfig) setQuality(arr *[model.QualityCount]uint32, q model.Quality, v uint32) {
	if !q.Valid() {
		return
	}
	c.mu.Lock()
	arr[q] = v
	c.mu.Unlock()
}

// GetMinPrice falls back to the quality floor when unset and never exceeds the effective max.
func (c *VenueConfig) GetMinPrice(q model.Quality) uint32 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	minPrice, maxPrice := c.minPrice[q], c.maxPrice[q]
	if minPrice == 0 {
		return defaultMinPrice[q]
	}
	// clamp against the max GetMaxPrice reports, so an unset max never yields a zero min
	if maxPrice == 0 {
		maxPrice = defaultMaxPrice[q]
	}
	if minPrice > maxPrice {
		return maxPrice
	}
	return minPrice
}

func (c *VenueConfig) GetMaxPrice(q model.Quality) uint32 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.maxPrice[q] == 0 {
		return defaultMaxPrice[q]
	}
	return c.maxPrice[q]
}

func (c *VenueConfig) GetMinBidPrice(q model.Quality) uint32 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return min(c.minBidPrice[q], 100)
}

func (c *VenueConfig) GetMaxBidPrice(q model.Quality) uint32 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return min(c.maxBidPrice[q], 100)
}

func (c *VenueConfig) GetMaxStack(q model.Quality) uint32 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxStack[q]
}

func (c *VenueConfig) SetBuyerPrice(q model.Quality, factor float64) {
	if !q.Valid() {
		return
	}
	c.mu.Lock()
	c.buyerPrice[q] = factor
	c.mu.Unlock()
}

func (c *VenueConfig) GetBuyerPrice(q model.Quality) float64 {
	if !q.Valid() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buyerPrice[q]
}

func (c *VenueConfig) SetBiddingInterval(d time.Duration) {
	c.mu.Lock()
	c.biddingInterval = d
	c.mu.Unlock()
}

func (c *VenueConfig) BiddingInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.biddingInterval
}

func (c *VenueConfig) SetBidsPerInterval(n uint32) {
	c.mu.Lock()
	c.bidsPerInterval = n
	c.mu.Unlock()
}

func (c *VenueConfig) BidsPerInterval() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bidsPerInterval
}

// IncItemCount records one more live listing in the bucket.
func (c *VenueConfig) IncItemCount(k model.BucketKey) {
	if !k.Valid() {
		return
	}
	c.counts.Ptr(k).Add(1)
}

// DecItemCount never takes a slot below zero.
func (c *VenueConfig) DecItemCount(k model.BucketKey) {
	if !k.Valid() {
		return
	}
	slot := c.counts.Ptr(k)
	for {
		cur := slot.Load()
		if cur <= 0 {
			logger.Component("venue").Warn("item count underflow ignored",
				"venue", c.venue.String(), "bucket", k.String())
			return
		}
		if slot.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (c *VenueConfig) ItemCount(k model.BucketKey) uint32 {
	if !k.Valid() {
		return 0
	}
	return uint32(c.counts.Ptr(k).Load())
}

func (c *VenueConfig) ResetItemCounts() {
	for _, k := range model.AllBuckets() {
		c.counts.Ptr(k).Store(0)
	}
}

// ItemCounts returns all observed counts in flat order.
func (c *VenueConfig) ItemCounts() [model.BucketCount]uint32 {
	var out [model.BucketCount]uint32
	for _, k := range model.AllBuckets() {
		out[k.Index()] = c.ItemCount(k)
	}
	return out
}

// BuyerParams is the part of the config a deferred bid pass reads.
type BuyerParams struct {
	Venue           model.VenueID
	BidsPerInterval uint32
	BuyerPrice      [model.QualityCount]float64
}

// BuyerSnapshot copies the buyer tunables so a later callback sees the values of its dispatch tick.
func (c *VenueConfig) BuyerSnapshot() BuyerParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return BuyerParams{
		Venue:           c.venue,
		BidsPerInterval: c.bidsPerInterval,
		BuyerPrice:      c.buyerPrice,
	}
}

// Apply loads a persisted row. Percentages go last so quotas see the new max.
func (c *VenueConfig) Apply(s model.VenueSettings) {
	c.mu.Lock()
	if s.Name != "" {
		c.name = s.Name
	}
	c.minItems = s.MinItems
	c.maxItems = s.MaxItems
	c.minPrice = s.MinPrice
	c.maxPrice = s.MaxPrice
	c.minBidPrice = s.MinBidPrice
	c.maxBidPrice = s.MaxBidPrice
	c.maxStack = s.MaxStack
	for q, v := range s.BuyerPrice {
		c.buyerPrice[q] = float64(v)
	}
	c.biddingInterval = time.Duration(s.BiddingIntervalMinutes) * time.Minute
	c.bidsPerInterval = s.BidsPerInterval
	c.mu.Unlock()

	c.SetPercentages(s.Percentages)
}

// Settings renders the current tunables as a persisted row (raw values, no read-time clamps).
func (c *VenueConfig) Settings() model.VenueSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := model.VenueSettings{
		Venue:                  c.venue,
		Name:                   c.name,
		MinItems:               c.minItems,
		MaxItems:               c.maxItems,
		MinPrice:               c.minPrice,
		MaxPrice:               c.maxPrice,
		MinBidPrice:            c.minBidPrice,
		MaxBidPrice:            c.maxBidPrice,
		MaxStack:               c.maxStack,
		BiddingIntervalMinutes: uint32(c.biddingInterval / time.Minute),
		BidsPerInterval:        c.bidsPerInterval,
	}
	copy(s.Percentages[:], c.percentages.Flat())
	// the column is integral; fractional factors set at runtime round to the nearest unit
	for q, v := range c.buyerPrice {
		s.BuyerPrice[q] = uint32(math.Round(max(v, 0)))
	}
	return s
}
