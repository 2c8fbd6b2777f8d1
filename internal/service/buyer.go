package service

import (
	"context"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/GoPolymarket/auctionbot/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	minBidRate = 0.01
	maxBidRate = 1.0
)

type BuyerOptions struct {
	Enabled bool
	// true values listings at sell price, false at buy price
	UseBuyPrice bool
}

// BidStats summarizes one decision pass.
type BidStats struct {
	Candidates int
	Bids       int
	Buyouts    int
	Skipped    int
}

// Actions is the number of bids plus buyouts.
func (s BidStats) Actions() int { return s.Bids + s.Buyouts }

// Buyer places competitive bids on listings the bot does not own.
type Buyer struct {
	opts     BuyerOptions
	catalog  Catalog
	market   *market.Marketplace
	store    ListingStore
	pump     *QueryPump
	rng      RNG
	activity ActivitySink
	now      func() time.Time

	// OnPass observes every finished decision pass.
	OnPass func(venue model.VenueID, stats BidStats)
}

func NewBuyer(opts BuyerOptions, catalog Catalog, m *market.Marketplace, store ListingStore, pump *QueryPump, rng RNG, activity ActivitySink) *Buyer {
	if activity == nil {
		activity = nopSink{}
	}
	return &Buyer{
		opts:     opts,
		catalog:  catalog,
		market:   m,
		store:    store,
		pump:     pump,
		rng:      rng,
		activity: activity,
		now:      time.Now,
	}
}

func (b *Buyer) Enabled() bool { return b.opts.Enabled }

func (b *Buyer) Disable() { b.opts.Enabled = false }

// Dispatch starts the candidate query. The decision loop runs when the pump is drained,
// with the participant and the config values of this call.
func (b *Buyer) Dispatch(ctx context.Context, p model.Participant, cfg *VenueConfig) *Future[[]uint64] {
	if !b.opts.Enabled {
		logger.Component("buyer").Debug("buyer disabled")
		return nil
	}
	params := cfg.BuyerSnapshot()
	// the query and the callback outlive the caller (drained on a later tick)
	ctx = context.WithoutCancel(ctx)
	return Submit(b.pump,
		func() ([]uint64, error) {
			return b.store.Candidates(ctx, params.Venue, p.Character)
		},
		func(ids []uint64, err error) {
			if err != nil {
				logger.Component("buyer").Warn("candidate query failed",
					"venue", params.Venue.String(), "error", err)
				return
			}
			b.PlaceBids(ctx, p, params, ids)
		})
}

// PlaceBids runs the synchronous decision loop over a candidate set. Every
// lookup may be stale; misses skip the candidate.
func (b *Buyer) PlaceBids(ctx context.Context, p model.Participant, params BuyerParams, candidates []uint64) BidStats {
	stats := BidStats{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return stats
	}
	log := logger.Component("buyer").With("venue", params.Venue.String())
	house := b.market.House(params.Venue)

	pool := append([]uint64(nil), candidates...)
	for count := uint32(0); count < params.BidsPerInterval; count++ {
		if len(pool) == 0 {
			break
		}
		i := b.rng.IntRange(0, len(pool)-1)
		id := pool[i]
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		outcome := b.decide(ctx, p, params, house, id)
		switch outcome {
		case "bid":
			stats.Bids++
		case "buyout":
			stats.Buyouts++
		default:
			stats.Skipped++
		}
		metrics.BidsTotal.WithLabelValues(params.Venue.String(), outcome).Inc()
	}

	log.Debug("bid pass done", "candidates", stats.Candidates, "bids", stats.Bids,
		"buyouts", stats.Buyouts, "skipped", stats.Skipped)
	if b.OnPass != nil {
		b.OnPass(params.Venue, stats)
	}
	return stats
}

func (b *Buyer) decide(ctx context.Context, p model.Participant, params BuyerParams, house *market.House, id uint64) string {
	log := logger.Component("buyer").With("venue", params.Venue.String(), "listing_id", id)

	l, ok := house.Get(id)
	if !ok {
		return "skipped"
	}
	item, ok := b.market.Items().Get(l.ItemID)
	if !ok {
		log.Debug("item gone, perhaps bought already", "item_id", l.ItemID)
		return "skipped"
	}
	entry, ok := b.catalog.Entry(l.ItemEntry)
	if !ok {
		log.Debug("item template missing", "entry", l.ItemEntry)
		return "skipped"
	}
	if !entry.Quality.Valid() {
		log.Debug("quality not supported", "quality", entry.Quality)
		return "skipped"
	}

	current := l.CurrentPrice()
	currentDec := decimal.NewFromInt(int64(current))

	// the buyer flag picks the opposite price column
	ref := entry.ReferencePrice(!b.opts.UseBuyPrice)
	ceiling := decimal.NewFromInt(int64(ref)).
		Mul(decimal.NewFromInt(int64(item.Count))).
		Mul(decimal.NewFromFloat(params.BuyerPrice[entry.Quality]))

	bidMax := decimal.Zero
	if currentDec.LessThan(ceiling) {
		bidMax = ceiling
	}
	if entry.Class == model.ClassProjectile {
		bidMax = decimal.Zero
	}
	if bidMax.IsZero() {
		return "skipped"
	}

	rate := b.rng.FloatRange(minBidRate, maxBidRate)
	value := currentDec.Add(bidMax.Sub(currentDec).Mul(decimal.NewFromFloat(rate)))
	bidPrice := uint64(value.Truncate(0).IntPart())

	increment := b.market.OutbidIncrement(l)
	if floor := current + increment; bidPrice < floor {
		bidPrice = floor
	}

	log.Debug("bid computed", "owner", l.Owner, "bidder", l.Bidder, "start_bid", l.StartBid,
		"current", current, "buyout", l.Buyout, "rate", rate, "bid_max", bidMax.String(),
		"bid_value", value.String(), "bid_price", bidPrice, "entry", entry.ID, "quality", entry.Quality.String())

	if l.Buyout == 0 || bidPrice < l.Buyout {
		return b.bid(ctx, p, house, l, bidPrice, increment)
	}
	return b.buyout(ctx, p, house, l, increment)
}

// bid persists the new bid first; the house and mail only change once the store accepted it.
func (b *Buyer) bid(ctx context.Context, p model.Participant, house *market.House, l *model.Listing, price, increment uint64) string {
	next := *l
	next.Bidder = p.Character
	next.Bid = price
	if err := b.store.UpdateBid(ctx, &next); err != nil {
		logger.Component("buyer").Warn("bid not persisted, skipped", "listing_id", l.ID, "error", err)
		return "skipped"
	}
	updated, ok := house.SetBid(l.ID, p.Character, price)
	if !ok {
		return "skipped"
	}

	if l.Bidder != 0 && l.Bidder != p.Character {
		b.market.Notify(model.Notification{
			Kind:      model.MailOutbid,
			Venue:     l.Venue,
			ListingID: l.ID,
			ItemEntry: l.ItemEntry,
			Recipient: l.Bidder,
			Amount:    l.Bid,
			NewBidder: p.Character,
			NewPrice:  price,
			Increment: increment,
		})
	}
	b.journal(model.ActivityBid, p, updated, price)
	return "bid"
}

// buyout settles the listing at its buyout price. The listing's bid fields are left untouched.
// The row is deleted before the house forgets the listing, so a failed delete leaves both in place.
func (b *Buyer) buyout(ctx context.Context, p model.Participant, house *market.House, l *model.Listing, increment uint64) string {
	if err := b.store.Delete(ctx, l); err != nil {
		logger.Component("buyer").Warn("buyout delete not persisted, skipped", "listing_id", l.ID, "error", err)
		return "skipped"
	}
	if _, ok := house.Remove(l.ID); !ok {
		return "skipped"
	}
	b.market.Items().Release(l.ItemID)

	if l.Bidder != 0 && l.Bidder != p.Character {
		b.market.Notify(model.Notification{
			Kind:      model.MailOutbid,
			Venue:     l.Venue,
			ListingID: l.ID,
			ItemEntry: l.ItemEntry,
			Recipient: l.Bidder,
			Amount:    l.Bid,
			NewBidder: p.Character,
			NewPrice:  l.Buyout,
			Increment: increment,
		})
	}
	b.market.Notify(model.Notification{
		Kind:      model.MailSuccess,
		Venue:     l.Venue,
		ListingID: l.ID,
		ItemEntry: l.ItemEntry,
		Recipient: l.Owner,
		Amount:    l.Buyout,
	})
	b.market.Notify(model.Notification{
		Kind:      model.MailWon,
		Venue:     l.Venue,
		ListingID: l.ID,
		ItemEntry: l.ItemEntry,
		Recipient: p.Character,
		Amount:    l.Buyout,
	})
	b.journal(model.ActivityBuyout, p, l, l.Buyout)
	return "buyout"
}

func (b *Buyer) journal(kind model.ActivityKind, p model.Participant, l *model.Listing, amount uint64) {
	b.activity.Log(&model.ActivityLog{
		Venue:     l.Venue.String(),
		Kind:      kind,
		ListingID: l.ID,
		ItemEntry: l.ItemEntry,
		Amount:    amount,
		Actor:     p.SessionName(),
		Context: map[string]interface{}{
			"owner":     l.Owner,
			"start_bid": l.StartBid,
			"buyout":    l.Buyout,
		},
		CreatedAt: b.now(),
	})
}
