package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// BotContext owns the simulation state passed to every tick: the bot
// identity, the three venue configs and the per-venue bid clocks.
type BotContext struct {
	identity     model.Participant
	allowTwoSide bool
	configs      [model.VenueCount]*VenueConfig

	mu      sync.Mutex
	lastBid [model.VenueCount]time.Time

	disabled atomic.Bool
}

func NewBotContext(identity model.Participant, allowTwoSide bool) *BotContext {
	b := &BotContext{identity: identity, allowTwoSide: allowTwoSide}
	for _, v := range model.AllVenues() {
		b.configs[v] = NewVenueConfig(v)
	}
	return b
}

func (b *BotContext) Config(v model.VenueID) *VenueConfig {
	if int(v) >= len(b.configs) {
		return b.configs[model.VenueNeutral]
	}
	return b.configs[v]
}

// Identity is the configured account/character pair.
func (b *BotContext) Identity() model.Participant { return b.identity }

// NewParticipant builds the per-tick participant. Callers must not keep it past the tick.
func (b *BotContext) NewParticipant() model.Participant {
	return model.Participant{Account: b.identity.Account, Character: b.identity.Character}
}

// ActiveVenues lists venues in tick order. With two-side interaction allowed only Neutral runs,
// otherwise Alliance, Horde, Neutral.
func (b *BotContext) ActiveVenues() []model.VenueID {
	if b.allowTwoSide {
		return []model.VenueID{model.VenueNeutral}
	}
	return []model.VenueID{model.VenueAlliance, model.VenueHorde, model.VenueNeutral}
}

func (b *BotContext) LastBid(v model.VenueID) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBid[v]
}

func (b *BotContext) setLastBid(v model.VenueID, at time.Time) {
	b.mu.Lock()
	b.lastBid[v] = at
	b.mu.Unlock()
}

// BidDue reports whether the venue's buyer should run at now.
func (b *BotContext) BidDue(v model.VenueID, now time.Time) bool {
	cfg := b.Config(v)
	return now.Sub(b.LastBid(v)) >= cfg.BiddingInterval() && cfg.BidsPerInterval() > 0
}

func (b *BotContext) Disable(reason string) {
	if b.disabled.CompareAndSwap(false, true) {
		logger.Component("bot").Error("simulation disabled", "reason", reason,
			"account", b.identity.Account, "character", b.identity.Character)
	}
}

func (b *BotContext) Enabled() bool { return !b.disabled.Load() }

// LoadValues reads every venue row from the store, seeding defaults for
// missing rows, then recounts live listings.
func (b *BotContext) LoadValues(ctx context.Context, repo VenueSettingsRepo, m *market.Marketplace, catalog Catalog) error {
	log := logger.Component("bot")
	for _, v := range model.AllVenues() {
		row, err := repo.Load(ctx, v)
		switch {
		case errors.Is(err, ErrVenueSettingsNotFound):
			def := model.DefaultVenueSettings(v)
			if err := repo.Save(ctx, &def); err != nil {
				return fmt.Errorf("seed venue %s: %w", v, err)
			}
			row = &def
			log.Warn("venue settings missing, seeded defaults", "venue", v.String())
		case err != nil:
			return fmt.Errorf("load venue %s: %w", v, err)
		}
		b.Config(v).Apply(*row)
		if m != nil {
			b.Recount(v, m, catalog)
		}
		log.Info("venue settings loaded", "venue", v.String(),
			"min_items", b.Config(v).GetMinItems(), "max_items", b.Config(v).GetMaxItems())
	}
	return nil
}

// Recount rebuilds a venue's observed counts from its live listings.
func (b *BotContext) Recount(v model.VenueID, m *market.Marketplace, catalog Catalog) {
	cfg := b.Config(v)
	cfg.ResetItemCounts()
	for _, l := range m.House(v).List() {
		entry, ok := catalog.Entry(l.ItemEntry)
		if !ok {
			continue
		}
		cfg.IncItemCount(entry.Bucket())
	}
}

// ListingHooks keeps observed counts in step with every add/remove on the
// marketplace, whoever made it.
type ListingHooks struct {
	bot     *BotContext
	catalog Catalog
}

func NewListingHooks(bot *BotContext, catalog Catalog) *ListingHooks {
	return &ListingHooks{bot: bot, catalog: catalog}
}

func (h *ListingHooks) OnListingAdded(house model.HouseID, l *model.Listing) {
	if key, ok := h.bucket(l); ok {
		h.bot.Config(model.VenueForHouse(house)).IncItemCount(key)
	}
}

func (h *ListingHooks) OnListingRemoved(house model.HouseID, l *model.Listing) {
	if key, ok := h.bucket(l); ok {
		h.bot.Config(model.VenueForHouse(house)).DecItemCount(key)
	}
}

func (h *ListingHooks) bucket(l *model.Listing) (model.BucketKey, bool) {
	if l == nil {
		return model.BucketKey{}, false
	}
	entry, ok := h.catalog.Entry(l.ItemEntry)
	if !ok {
		return model.BucketKey{}, false
	}
	key := entry.Bucket()
	return key, key.Valid()
}
