package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neutralParams(f *fixture, bids uint32) BuyerParams {
	cfg := f.bot.Config(model.VenueNeutral)
	cfg.SetBidsPerInterval(bids)
	return cfg.BuyerSnapshot()
}

func TestBuyerBidsBetweenCurrentAndCeiling(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 100, 0)

	// ceiling = buy price 1000 x count 1 x factor 2; rate 0.01 -> 100 + 1900*0.01
	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})
	assert.Equal(t, 1, stats.Bids)

	got, ok := f.market.House(model.VenueNeutral).Get(l.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(119), got.Bid)
	assert.Equal(t, testBot.Character, got.Bidder)

	saved, ok := f.store.Saved(l.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(119), saved.Bid)

	assert.Empty(t, f.mails(), "no previous bidder to notify")
	assert.Equal(t, []model.ActivityKind{model.ActivityBid}, f.activity.kinds())
}

func TestBuyerRaisesToOutbidFloor(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 500, 0)
	_, ok := f.market.House(model.VenueNeutral).SetBid(l.ID, 600, 1000)
	require.True(t, ok)

	// 1000 + 1000*0.01 = 1010 is below 1000 + 5%
	f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})

	got, _ := f.market.House(model.VenueNeutral).Get(l.ID)
	assert.Equal(t, uint64(1050), got.Bid)

	mails := f.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, model.Notification{
		Kind:      model.MailOutbid,
		Venue:     model.VenueNeutral,
		ListingID: l.ID,
		ItemEntry: 200,
		Recipient: 600,
		Amount:    1000,
		NewBidder: testBot.Character,
		NewPrice:  1050,
		Increment: 50,
	}, mails[0])
}

func TestBuyerBuyout(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 900, 1000)
	f.rng.floats = []float64{1.0}

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})
	require.Equal(t, 1, stats.Buyouts)

	_, ok := f.market.House(model.VenueNeutral).Get(l.ID)
	assert.False(t, ok)
	_, ok = f.store.Saved(l.ID)
	assert.False(t, ok)
	_, ok = f.market.Items().Get(l.ItemID)
	assert.False(t, ok)

	bids, _, deletes := f.store.Stats()
	assert.Zero(t, bids, "a buyout never records a bid")
	assert.Equal(t, 1, deletes)

	// won mail to the bot is dropped
	mails := f.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, model.MailSuccess, mails[0].Kind)
	assert.Equal(t, uint64(500), mails[0].Recipient)
	assert.Equal(t, uint64(1000), mails[0].Amount)
	delivered, suppressed := f.market.Mailer().Stats()
	assert.Equal(t, uint64(1), delivered)
	assert.Equal(t, uint64(1), suppressed)

	assert.Zero(t, f.bot.Config(model.VenueNeutral).ItemCount(whiteDurable))
	assert.Equal(t, []model.ActivityKind{model.ActivityBuyout}, f.activity.kinds())
}

func TestBuyerSkipsAboveCeiling(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 5000, 0)

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})

	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, f.rng.floatCalls, "rate is only drawn for a positive ceiling")
	got, _ := f.market.House(model.VenueNeutral).Get(l.ID)
	assert.Zero(t, got.Bid)
}

func TestBuyerSkipsProjectiles(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 300, 20, 1, 0)

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})

	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Actions())
}

func TestBuyerSkipsStaleCandidates(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 100, 0)
	f.market.Items().Release(l.ItemID)

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 3), []uint64{9999, l.ID})

	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, stats.Actions())
}

func TestBuyerStopsWhenPoolEmpty(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 100, 0)

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 2), []uint64{l.ID})

	assert.Equal(t, 1, stats.Actions())
	assert.Equal(t, [][2]int{{0, 0}}, f.rng.intCalls)
}

func TestBuyerDispatchWaitsForDrain(t *testing.T) {
	f := newFixture(t)
	a := f.list(t, model.VenueNeutral, 200, 1, 100, 0)
	b := f.list(t, model.VenueNeutral, 100, 1, 10, 0)
	cfg := f.bot.Config(model.VenueNeutral)
	cfg.SetBidsPerInterval(1)

	var passes []BidStats
	f.buyer.OnPass = func(v model.VenueID, stats BidStats) {
		assert.Equal(t, model.VenueNeutral, v)
		passes = append(passes, stats)
	}

	fut := f.buyer.Dispatch(t.Context(), testBot, cfg)
	require.NotNil(t, fut)
	assert.True(t, fut.Ready())
	assert.Empty(t, passes, "callbacks only run at the drain point")

	cfg.SetBidsPerInterval(5)
	assert.Equal(t, 1, f.pump.ProcessReady())

	require.Len(t, passes, 1)
	assert.Equal(t, 2, passes[0].Candidates)
	assert.Equal(t, 1, passes[0].Actions(), "the dispatch-time bids per interval applies")

	ids, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID}, ids)
}

func TestBuyerCandidatesExcludeOwnAndHeld(t *testing.T) {
	f := newFixture(t)
	other := f.list(t, model.VenueNeutral, 200, 1, 100, 0)
	held := f.list(t, model.VenueNeutral, 200, 1, 100, 0)
	f.market.House(model.VenueNeutral).SetBid(held.ID, testBot.Character, 120)

	own, err := f.market.Items().Create(50, 1, testBot.Character)
	require.NoError(t, err)
	f.market.House(model.VenueNeutral).Add(&model.Listing{
		ID: f.market.NextListingID(), ItemID: own.ID, ItemEntry: 50, ItemCount: 1,
		Owner: testBot.Character, StartBid: 1, Buyout: 5,
	})

	ids, err := f.store.Candidates(t.Context(), model.VenueNeutral, testBot.Character)
	require.NoError(t, err)
	assert.Equal(t, []uint64{other.ID}, ids)
}

func TestBuyerDisabled(t *testing.T) {
	f := newFixture(t)
	f.buyer.Disable()

	assert.Nil(t, f.buyer.Dispatch(t.Context(), testBot, f.bot.Config(model.VenueNeutral)))
	assert.Zero(t, f.pump.Pending())
}

func TestBuyerDispatchOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	f.buyer.store = ctxListingStore{f.store}
	l := f.list(t, model.VenueNeutral, 200, 1, 100, 0)
	cfg := f.bot.Config(model.VenueNeutral)
	cfg.SetBidsPerInterval(1)

	ctx, cancel := context.WithCancel(t.Context())
	require.NotNil(t, f.buyer.Dispatch(ctx, testBot, cfg))
	cancel()
	require.Equal(t, 1, f.pump.ProcessReady())

	got, ok := f.market.House(model.VenueNeutral).Get(l.ID)
	require.True(t, ok)
	saved, ok := f.store.Saved(l.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(119), got.Bid)
	assert.Equal(t, got.Bid, saved.Bid)
	assert.Equal(t, got.Bidder, saved.Bidder)
}

func TestBuyerFailedBidLeavesListing(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 500, 0)
	_, ok := f.market.House(model.VenueNeutral).SetBid(l.ID, 600, 1000)
	require.True(t, ok)
	f.store.FailNext(errors.New("connection reset"))

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})

	assert.Equal(t, 1, stats.Skipped)
	got, _ := f.market.House(model.VenueNeutral).Get(l.ID)
	assert.Equal(t, uint64(1000), got.Bid)
	assert.Equal(t, uint64(600), got.Bidder)
	assert.Empty(t, f.mails(), "no outbid mail for a bid that never landed")
	assert.Empty(t, f.activity.kinds())
	bids, _, _ := f.store.Stats()
	assert.Zero(t, bids)
}

func TestBuyerFailedBuyoutKeepsListing(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueNeutral, 200, 1, 900, 1000)
	f.rng.floats = []float64{1.0}
	f.store.FailNext(errors.New("connection reset"))

	stats := f.buyer.PlaceBids(t.Context(), testBot, neutralParams(f, 1), []uint64{l.ID})

	assert.Equal(t, 1, stats.Skipped)
	_, ok := f.market.House(model.VenueNeutral).Get(l.ID)
	assert.True(t, ok)
	_, ok = f.store.Saved(l.ID)
	assert.True(t, ok)
	_, ok = f.market.Items().Get(l.ItemID)
	assert.True(t, ok)
	assert.Empty(t, f.mails())
	delivered, suppressed := f.market.Mailer().Stats()
	assert.Zero(t, delivered)
	assert.Zero(t, suppressed)
}
