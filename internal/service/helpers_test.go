package service

import (
	"context"
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/stretchr/testify/require"
)

var (
	testBot = model.Participant{Account: 7, Character: 70}

	greyBulk     = model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityPoor}
	whiteDurable = model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityNormal}
)

// tb is satisfied by *testing.T and *rapid.T.
type tb interface {
	require.TestingT
	Helper()
}

// scriptedRNG replays queued values, clamped into the requested range, then
// falls back to the lower bound.
type scriptedRNG struct {
	mu         sync.Mutex
	ints       []int
	floats     []float64
	intCalls   [][2]int
	floatCalls int
}

func (r *scriptedRNG) IntRange(lo, hi int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intCalls = append(r.intCalls, [2]int{lo, hi})
	if len(r.ints) == 0 {
		return lo
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return max(lo, min(v, hi))
}

func (r *scriptedRNG) FloatRange(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.floatCalls++
	if len(r.floats) == 0 {
		return lo
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

// ctxListingStore fails writes and queries once their context is done, like the SQL stores do.
type ctxListingStore struct {
	*market.MemoryListingStore
}

func (s ctxListingStore) UpdateBid(ctx context.Context, l *model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryListingStore.UpdateBid(ctx, l)
}

func (s ctxListingStore) Delete(ctx context.Context, l *model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryListingStore.Delete(ctx, l)
}

func (s ctxListingStore) Candidates(ctx context.Context, venue model.VenueID, character uint64) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryListingStore.Candidates(ctx, venue, character)
}

type memorySink struct {
	mu      sync.Mutex
	entries []*model.ActivityLog
}

func (s *memorySink) Log(e *model.ActivityLog) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

func (s *memorySink) kinds() []model.ActivityKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ActivityKind, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Kind
	}
	return out
}

// permissiveFilter admits every sample entry below.
func permissiveFilter() config.FilterConfig {
	return config.FilterConfig{
		VendorItems: true, LootItems: true, OtherItems: true,
		VendorTradeGoods: true, LootTradeGoods: true, OtherTradeGoods: true,
		NoBind: true, BindWhenPickedUp: true, BindWhenEquipped: true, BindWhenUse: true, BindQuestItem: true,
	}
}

func sampleCatalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: 50, Name: "Broken Fang", Class: model.ClassTradeGoods, Quality: model.QualityPoor,
			BuyPrice: 20, SellPrice: 5, MaxStack: 10, Loot: true},
		{ID: 100, Name: "Linen Cloth", Class: model.ClassTradeGoods, Quality: model.QualityNormal,
			BuyPrice: 40, SellPrice: 10, MaxStack: 20, Loot: true},
		{ID: 101, Name: "Copper Bar", Class: model.ClassTradeGoods, Quality: model.QualityUncommon,
			BuyPrice: 200, SellPrice: 50, MaxStack: 20, Vendor: true},
		{ID: 200, Name: "Worn Shortsword", Class: model.ClassWeapon, Quality: model.QualityNormal,
			BuyPrice: 1000, SellPrice: 250, MaxStack: 1, Bonding: model.BondingOnEquip, Loot: true},
		{ID: 201, Name: "Ring of Fortune", Class: model.ClassArmor, Quality: model.QualityRare,
			BuyPrice: 5000, SellPrice: 1200, MaxStack: 1, Bonding: model.BondingOnEquip, Loot: true,
			RandomProperties: []uint32{11, 12}},
		{ID: 300, Name: "Rough Arrow", Class: model.ClassProjectile, Quality: model.QualityNormal,
			BuyPrice: 10, SellPrice: 1, MaxStack: 200, Vendor: true},
	}
}

type fixture struct {
	catalog   *market.MemoryCatalog
	index     *ItemIndex
	market    *market.Marketplace
	store     *market.MemoryListingStore
	bot       *BotContext
	pump      *QueryPump
	rng       *scriptedRNG
	activity  *memorySink
	seller    *Seller
	buyer     *Buyer
	scheduler *Scheduler

	mu   sync.Mutex
	mail []model.Notification
}

func newFixture(t tb) *fixture {
	t.Helper()
	f := &fixture{
		catalog:  market.NewMemoryCatalog(sampleCatalog()),
		index:    NewItemIndex(),
		bot:      NewBotContext(testBot, false),
		pump:     NewQueryPump(SyncExecutor),
		rng:      &scriptedRNG{},
		activity: &memorySink{},
	}
	require.True(t, f.index.Build(f.catalog.All(), NewItemFilter(permissiveFilter(), false, nil)))

	f.market = market.NewMarketplace(market.Options{
		BotCharacter: testBot.Character,
		Observer:     NewListingHooks(f.bot, f.catalog),
	})
	f.market.Mailer().AddSink(func(n model.Notification) {
		f.mu.Lock()
		f.mail = append(f.mail, n)
		f.mu.Unlock()
	})
	f.store = market.NewMemoryListingStore(f.market)

	for _, v := range model.AllVenues() {
		f.bot.Config(v).Apply(model.DefaultVenueSettings(v))
	}

	f.seller = NewSeller(SellerOptions{Enabled: true, ItemsPerCycle: 200}, f.index, f.catalog, f.market, f.store, f.rng, f.activity)
	f.buyer = NewBuyer(BuyerOptions{Enabled: true}, f.catalog, f.market, f.store, f.pump, f.rng, f.activity)
	f.scheduler = NewScheduler(f.seller, f.buyer, f.pump, f.market, f.store, f.activity)
	return f
}

func (f *fixture) mails() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.mail...)
}

// configure sets a venue's population and puts every percent on one bucket.
func (f *fixture) configure(v model.VenueID, maxItems, minItems uint32, bucket model.BucketKey) *VenueConfig {
	cfg := f.bot.Config(v)
	cfg.SetMaxItems(maxItems)
	cfg.SetMinItems(minItems)
	var pcts [model.BucketCount]uint32
	pcts[bucket.Index()] = 100
	cfg.SetPercentages(pcts)
	return cfg
}

// list puts a listing owned by someone else on the venue.
func (f *fixture) list(t tb, v model.VenueID, entryID uint32, count uint32, startBid, buyout uint64) *model.Listing {
	t.Helper()
	item, err := f.market.Items().Create(entryID, count, 500)
	require.NoError(t, err)
	l := &model.Listing{
		ID:        f.market.NextListingID(),
		Venue:     v,
		ItemID:    item.ID,
		ItemEntry: entryID,
		ItemCount: count,
		Owner:     500,
		StartBid:  startBid,
		Buyout:    buyout,
	}
	require.NoError(t, f.store.SaveNew(context.Background(), item, l))
	f.market.House(v).Add(l)
	return l
}
