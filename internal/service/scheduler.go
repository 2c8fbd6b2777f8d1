package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/GoPolymarket/auctionbot/internal/pkg/metrics"
)

// TickReport summarizes one tick.
type TickReport struct {
	Skipped    bool            `json:"skipped"`
	Created    map[string]int  `json:"created"`
	Dispatched []string        `json:"dispatched"`
	Drained    int             `json:"drained"`
	Expired    int             `json:"expired"`
	Duration   time.Duration   `json:"duration"`
	Venues     []model.VenueID `json:"-"`
}

// Scheduler drives the agents. Ticks never overlap.
type Scheduler struct {
	seller   *Seller
	buyer    *Buyer
	pump     *QueryPump
	market   *market.Marketplace
	store    ListingStore
	activity ActivitySink

	mu sync.Mutex
}

func NewScheduler(seller *Seller, buyer *Buyer, pump *QueryPump, m *market.Marketplace, store ListingStore, activity ActivitySink) *Scheduler {
	if activity == nil {
		activity = nopSink{}
	}
	return &Scheduler{
		seller:   seller,
		buyer:    buyer,
		pump:     pump,
		market:   m,
		store:    store,
		activity: activity,
	}
}

// Tick runs one simulation step against bot. An overlapping call is skipped.
func (s *Scheduler) Tick(ctx context.Context, bot *BotContext, now time.Time) TickReport {
	log := logger.Component("scheduler")
	if !s.mu.TryLock() {
		log.Warn("tick still running, skipping")
		return TickReport{Skipped: true}
	}
	defer s.mu.Unlock()

	start := time.Now()
	report := TickReport{Created: make(map[string]int)}
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	report.Expired = s.ExpireDue(ctx, now)

	if !bot.Enabled() || (!s.seller.Enabled() && !s.buyer.Enabled()) {
		report.Drained = s.pump.ProcessReady()
		report.Duration = time.Since(start)
		return report
	}

	p := bot.NewParticipant()
	if p.IsZero() {
		bot.Disable("invalid participant identity")
		return report
	}

	for _, v := range bot.ActiveVenues() {
		cfg := bot.Config(v)
		report.Venues = append(report.Venues, v)
		report.Created[v.String()] = s.seller.TopUp(ctx, p, cfg)

		if bot.BidDue(v, now) {
			log.Debug("bidding interval passed", "venue", v.String(),
				"since_last", now.Sub(bot.LastBid(v)).String())
			if s.buyer.Dispatch(ctx, p, cfg) != nil {
				report.Dispatched = append(report.Dispatched, v.String())
			}
			bot.setLastBid(v, now)
		}
	}

	report.Drained = s.pump.ProcessReady()
	s.observe(bot)
	report.Duration = time.Since(start)
	return report
}

// ExpireDue settles every listing whose expiry passed: won/success mail when
// there is a bid, expired mail otherwise. Returns how many were removed.
func (s *Scheduler) ExpireDue(ctx context.Context, now time.Time) int {
	removed := 0
	for _, v := range model.AllVenues() {
		house := s.market.House(v)
		for _, l := range house.Due(now) {
			// a failed delete keeps the listing due; the next tick retries it
			if err := s.store.Delete(ctx, l); err != nil {
				logger.Component("scheduler").Warn("expired listing delete failed",
					"listing_id", l.ID, "error", err)
				continue
			}
			if _, ok := house.Remove(l.ID); !ok {
				continue
			}
			s.market.Items().Release(l.ItemID)
			removed++

			if l.Bidder != 0 {
				s.market.Notify(model.Notification{
					Kind: model.MailWon, Venue: v, ListingID: l.ID, ItemEntry: l.ItemEntry,
					Recipient: l.Bidder, Amount: l.Bid,
				})
				s.market.Notify(model.Notification{
					Kind: model.MailSuccess, Venue: v, ListingID: l.ID, ItemEntry: l.ItemEntry,
					Recipient: l.Owner, Amount: l.Bid,
				})
			} else {
				s.market.Notify(model.Notification{
					Kind: model.MailExpired, Venue: v, ListingID: l.ID, ItemEntry: l.ItemEntry,
					Recipient: l.Owner,
				})
			}
			s.activity.Log(&model.ActivityLog{
				Venue:     v.String(),
				Kind:      model.ActivityExpired,
				ListingID: l.ID,
				ItemEntry: l.ItemEntry,
				Amount:    l.Bid,
				Actor:     "marketplace",
				Context:   map[string]interface{}{"owner": l.Owner, "bidder": l.Bidder},
				CreatedAt: now,
			})
		}
	}
	return removed
}

func (s *Scheduler) observe(bot *BotContext) {
	for _, v := range model.AllVenues() {
		counts := bot.Config(v).ItemCounts()
		for _, k := range model.AllBuckets() {
			metrics.ObservedItems.WithLabelValues(v.String(), k.String()).Set(float64(counts[k.Index()]))
		}
	}
}
