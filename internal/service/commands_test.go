package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSettingsRepo struct {
	*VenueSettingsStore
	err error
}

func (r *failingSettingsRepo) UpdateColumns(context.Context, model.VenueID, map[string]uint32) error {
	return r.err
}

func newCommandFixture(t *testing.T) (*fixture, *VenueSettingsStore, *CommandService) {
	t.Helper()
	f := newFixture(t)
	repo := NewVenueSettingsStore()
	for _, v := range model.AllVenues() {
		row := model.DefaultVenueSettings(v)
		require.NoError(t, repo.Save(t.Context(), &row))
	}
	svc := NewCommandService(f.bot, repo, f.market, f.store, f.activity)
	svc.now = func() time.Time { return tickStart }
	return f, repo, svc
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("2")
	require.NoError(t, err)
	assert.Equal(t, CmdMaxItems, cmd)

	cmd, err = ParseCommand(" BidsPerInterval ")
	require.NoError(t, err)
	assert.Equal(t, CmdBidsPerInterval, cmd)

	_, err = ParseCommand("restock")
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
}

func TestCommandMaxItemsPersistsThenApplies(t *testing.T) {
	f, repo, svc := newCommandFixture(t)

	require.NoError(t, svc.Execute(t.Context(), model.VenueHorde, CmdMaxItems, 0, []string{"0x20"}))

	cfg := f.bot.Config(model.VenueHorde)
	assert.Equal(t, uint32(32), cfg.GetMaxItems())
	var sum uint32
	for _, k := range model.AllBuckets() {
		sum += cfg.GetQuota(k)
	}
	assert.Equal(t, uint32(32), sum)

	row, err := repo.Load(t.Context(), model.VenueHorde)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), row.MaxItems)

	assert.Equal(t, []model.ActivityKind{model.ActivityCommand}, f.activity.kinds())
}

func TestCommandStoreErrorLeavesConfig(t *testing.T) {
	f := newFixture(t)
	repo := &failingSettingsRepo{VenueSettingsStore: NewVenueSettingsStore(), err: errors.New("connection refused")}
	svc := NewCommandService(f.bot, repo, f.market, f.store, f.activity)
	cfg := f.bot.Config(model.VenueNeutral)

	err := svc.Execute(t.Context(), model.VenueNeutral, CmdMinItems, 0, []string{"40"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrStorage))
	assert.Zero(t, cfg.GetMaxItems())
	assert.Equal(t, uint32(0), cfg.Settings().MinItems)

	var pcts []string
	for i := 0; i < model.BucketCount; i++ {
		pcts = append(pcts, "7")
	}
	err = svc.Execute(t.Context(), model.VenueNeutral, CmdPercentages, 0, pcts)
	assert.Error(t, err)
	assert.Equal(t, uint32(27), cfg.GetPercentages(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}))
	assert.Empty(t, f.activity.kinds())
}

func TestCommandPercentages(t *testing.T) {
	f, repo, svc := newCommandFixture(t)
	f.bot.Config(model.VenueAlliance).SetMaxItems(100)

	args := []string{"0", "50", "0", "0", "0", "0", "0", "0", "50", "0", "0", "0", "0", "0"}
	require.NoError(t, svc.Execute(t.Context(), model.VenueAlliance, CmdPercentages, 0, args))

	cfg := f.bot.Config(model.VenueAlliance)
	assert.Equal(t, uint32(50), cfg.GetQuota(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}))
	assert.Equal(t, uint32(50), cfg.GetQuota(whiteDurable))
	assert.Zero(t, cfg.GetQuota(model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityUncommon}))

	row, err := repo.Load(t.Context(), model.VenueAlliance)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), row.Percentages[8])

	err = svc.Execute(t.Context(), model.VenueAlliance, CmdPercentages, 0, args[:5])
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
}

func TestCommandPerQuality(t *testing.T) {
	f, repo, svc := newCommandFixture(t)
	cfg := f.bot.Config(model.VenueNeutral)

	require.NoError(t, svc.Execute(t.Context(), model.VenueNeutral, CmdMinPrice, model.QualityRare, []string{"300"}))
	require.NoError(t, svc.Execute(t.Context(), model.VenueNeutral, CmdBuyerPrice, model.QualityEpic, []string{"30"}))
	require.NoError(t, svc.Execute(t.Context(), model.VenueNeutral, CmdMaxStack, model.QualityNormal, []string{"5"}))

	assert.Equal(t, uint32(300), cfg.GetMinPrice(model.QualityRare))
	assert.Equal(t, 30.0, cfg.GetBuyerPrice(model.QualityEpic))
	assert.Equal(t, uint32(5), cfg.GetMaxStack(model.QualityNormal))

	row, err := repo.Load(t.Context(), model.VenueNeutral)
	require.NoError(t, err)
	assert.Equal(t, uint32(300), row.MinPrice[model.QualityRare])
	assert.Equal(t, uint32(30), row.BuyerPrice[model.QualityEpic])

	err = svc.Execute(t.Context(), model.VenueNeutral, CmdMinPrice, model.Quality(8), []string{"300"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
}

func TestCommandBidding(t *testing.T) {
	f, _, svc := newCommandFixture(t)
	cfg := f.bot.Config(model.VenueHorde)

	require.NoError(t, svc.Execute(t.Context(), model.VenueHorde, CmdBiddingInterval, 0, []string{"5"}))
	require.NoError(t, svc.Execute(t.Context(), model.VenueHorde, CmdBidsPerInterval, 0, []string{"3"}))

	assert.Equal(t, 5*time.Minute, cfg.BiddingInterval())
	assert.Equal(t, uint32(3), cfg.BidsPerInterval())
}

func TestCommandArgumentErrors(t *testing.T) {
	_, _, svc := newCommandFixture(t)

	err := svc.Execute(t.Context(), model.VenueHorde, CmdMaxItems, 0, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))

	err = svc.Execute(t.Context(), model.VenueHorde, CmdMaxItems, 0, []string{"lots"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))

	err = svc.Execute(t.Context(), model.VenueHorde, Command(42), 0, []string{"1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
}

func TestCommandDeprecatedIsNoop(t *testing.T) {
	f, _, svc := newCommandFixture(t)

	assert.NoError(t, svc.Execute(t.Context(), model.VenueHorde, CmdMinTime, 0, []string{"10"}))
	assert.Empty(t, f.activity.kinds())
}

func TestCommandExpireAll(t *testing.T) {
	f, _, svc := newCommandFixture(t)
	other := f.list(t, model.VenueNeutral, 100, 1, 10, 0)

	item, err := f.market.Items().Create(50, 1, testBot.Character)
	require.NoError(t, err)
	own := &model.Listing{
		ID: f.market.NextListingID(), Venue: model.VenueNeutral, ItemID: item.ID, ItemEntry: 50,
		ItemCount: 1, Owner: testBot.Character, StartBid: 1, Buyout: 5,
		ExpiresAt: tickStart.Add(48 * time.Hour),
	}
	require.NoError(t, f.store.SaveNew(t.Context(), item, own))
	f.market.House(model.VenueNeutral).Add(own)

	require.NoError(t, svc.Execute(t.Context(), model.VenueNeutral, CmdExpireAll, 0, nil))

	saved, ok := f.store.Saved(own.ID)
	require.True(t, ok)
	assert.Equal(t, tickStart, saved.ExpiresAt)

	assert.Equal(t, 1, f.scheduler.ExpireDue(t.Context(), tickStart))
	_, ok = f.market.House(model.VenueNeutral).Get(other.ID)
	assert.True(t, ok)
	assert.Empty(t, f.mails(), "expired mail to the bot is dropped")
}
