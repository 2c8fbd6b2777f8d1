package service

import (
	"context"
	"errors"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/GoPolymarket/auctionbot/internal/pkg/metrics"
)

// maxBucketAttempts bounds the bucket search for one listing.
const maxBucketAttempts = 50

type SellerOptions struct {
	Enabled       bool
	ItemsPerCycle uint32
	UseBuyPrice   bool
}

// Seller tops venues up toward their configured population.
type Seller struct {
	opts     SellerOptions
	index    *ItemIndex
	catalog  Catalog
	market   *market.Marketplace
	store    ListingStore
	rng      RNG
	activity ActivitySink
	now      func() time.Time
}

func NewSeller(opts SellerOptions, index *ItemIndex, catalog Catalog, m *market.Marketplace, store ListingStore, rng RNG, activity ActivitySink) *Seller {
	if activity == nil {
		activity = nopSink{}
	}
	return &Seller{
		opts:     opts,
		index:    index,
		catalog:  catalog,
		market:   m,
		store:    store,
		rng:      rng,
		activity: activity,
		now:      time.Now,
	}
}

func (s *Seller) Enabled() bool { return s.opts.Enabled }

// Disable turns selling off for the rest of the process lifetime.
func (s *Seller) Disable() { s.opts.Enabled = false }

// TopUp mints new listings for one venue and returns how many were created.
func (s *Seller) TopUp(ctx context.Context, p model.Participant, cfg *VenueConfig) int {
	log := logger.Component("seller").With("venue", cfg.Venue().String())
	if !s.opts.Enabled {
		log.Debug("seller disabled")
		return 0
	}

	minItems := cfg.GetMinItems()
	maxItems := cfg.GetMaxItems()
	if maxItems == 0 {
		log.Debug("auctions disabled")
		return 0
	}

	house := s.market.House(cfg.Venue())
	current := uint32(house.Count())

	// min acts as an upper gate here, same as max
	if current >= minItems {
		log.Debug("auctions above minimum", "current", current, "min", minItems)
		return 0
	}
	if current >= maxItems {
		log.Debug("auctions at or above maximum", "current", current, "max", maxItems)
		return 0
	}

	toAdd := min(maxItems-current, s.opts.ItemsPerCycle)

	// local view; the marketplace hook updates the shared counts
	observed := cfg.ItemCounts()
	quotas := make([]uint32, model.BucketCount)
	for _, k := range model.AllBuckets() {
		quotas[k.Index()] = cfg.GetQuota(k)
	}

	created := 0
	for cnt := uint32(0); cnt < toAdd; cnt++ {
	attempts:
		for attempt := 0; attempt < maxBucketAttempts; attempt++ {
			choice := s.rng.IntRange(0, model.BucketCount-1)
			key, _ := model.BucketFromIndex(choice)
			if s.index.Size(key) == 0 || observed[choice] >= quotas[choice] {
				continue
			}
			entryID, ok := s.index.SampleBucket(key, s.rng)
			if !ok || entryID == 0 {
				continue
			}
			entry, ok := s.catalog.Entry(entryID)
			if !ok {
				log.Error("item template missing", "entry", entryID)
				continue
			}

			l, err := s.createListing(ctx, p, cfg, entry)
			switch {
			case errors.Is(err, ErrItemNotCreated):
				log.Error("item not created", "entry", entryID)
				break attempts
			case err != nil:
				log.Error("listing not created", "entry", entryID, "error", err)
				continue
			}

			observed[choice]++
			created++
			metrics.ListingsCreated.WithLabelValues(cfg.Venue().String()).Inc()
			s.activity.Log(&model.ActivityLog{
				Venue:     cfg.Venue().String(),
				Kind:      model.ActivityListed,
				ListingID: l.ID,
				ItemEntry: l.ItemEntry,
				Amount:    l.Buyout,
				Actor:     p.SessionName(),
				Context: map[string]interface{}{
					"bucket":    key.String(),
					"start_bid": l.StartBid,
					"count":     l.ItemCount,
					"deposit":   l.Deposit,
				},
				CreatedAt: s.now(),
			})
			break attempts
		}
	}

	if created > 0 {
		log.Info("auctions added", "created", created, "requested", toAdd)
	}
	return created
}

func (s *Seller) createListing(ctx context.Context, p model.Participant, cfg *VenueConfig, entry *model.CatalogEntry) (*model.Listing, error) {
	if !entry.Quality.Valid() {
		return nil, errUnsupportedQuality
	}

	items := s.market.Items()
	item, err := items.Create(entry.ID, 1, p.Character)
	if err != nil || item == nil {
		return nil, ErrItemNotCreated
	}
	item.RandomPropertyID = RandomPropertyID(entry, s.rng)

	q := entry.Quality
	stack := s.stackSize(cfg, entry)

	buyout := entry.ReferencePrice(s.opts.UseBuyPrice)
	buyout *= uint64(s.rng.IntRange(int(cfg.GetMinPrice(q)), int(cfg.GetMaxPrice(q))))
	buyout /= 100
	bid := buyout * uint64(s.rng.IntRange(int(cfg.GetMinBidPrice(q)), int(cfg.GetMaxBidPrice(q))))
	bid /= 100

	duration := model.ListingDurations[s.rng.IntRange(1, len(model.ListingDurations))-1]
	item.Count = stack

	l := &model.Listing{
		ID:        s.market.NextListingID(),
		Venue:     cfg.Venue(),
		ItemID:    item.ID,
		ItemEntry: entry.ID,
		ItemCount: stack,
		Owner:     p.Character,
		StartBid:  bid * uint64(stack),
		Buyout:    buyout * uint64(stack),
		Deposit:   s.market.Deposit(cfg.Venue(), duration, entry, stack),
		ExpiresAt: s.now().Add(duration),
	}

	if err := s.store.SaveNew(ctx, item, l); err != nil {
		items.Release(item.ID)
		return nil, err
	}
	s.market.House(cfg.Venue()).Add(l)
	return l, nil
}

// stackSize draws the listing stack from the item's and the venue's caps.
func (s *Seller) stackSize(cfg *VenueConfig, entry *model.CatalogEntry) uint32 {
	configured := cfg.GetMaxStack(entry.Quality)
	switch {
	case configured > 1 && entry.MaxStack > 1:
		return uint32(s.rng.IntRange(1, int(min(entry.MaxStack, configured))))
	case configured == 0 && entry.MaxStack > 1:
		return uint32(s.rng.IntRange(1, int(entry.MaxStack)))
	default:
		return 1
	}
}
