package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSettingsRepo struct{ *VenueSettingsStore }

func (brokenSettingsRepo) Load(context.Context, model.VenueID) (*model.VenueSettings, error) {
	return nil, errors.New("relation does not exist")
}

func TestLoadValuesSeedsMissingRows(t *testing.T) {
	f := newFixture(t)
	repo := NewVenueSettingsStore()
	stored := model.DefaultVenueSettings(model.VenueHorde)
	stored.MaxItems = 50
	require.NoError(t, repo.Save(t.Context(), &stored))

	bot := NewBotContext(testBot, false)
	require.NoError(t, bot.LoadValues(t.Context(), repo, f.market, f.catalog))

	assert.Equal(t, uint32(50), bot.Config(model.VenueHorde).GetMaxItems())
	assert.Equal(t, uint32(50), bot.Config(model.VenueHorde).GetMinItems())
	assert.Zero(t, bot.Config(model.VenueAlliance).GetMaxItems())

	for _, v := range model.AllVenues() {
		row, err := repo.Load(t.Context(), v)
		require.NoError(t, err, v.String())
		assert.Equal(t, v, row.Venue)
	}
}

func TestLoadValuesStoreError(t *testing.T) {
	bot := NewBotContext(testBot, false)
	err := bot.LoadValues(t.Context(), brokenSettingsRepo{NewVenueSettingsStore()}, nil, nil)
	assert.ErrorContains(t, err, "load venue alliance")
}

func TestRecountMatchesLiveListings(t *testing.T) {
	f := newFixture(t)
	f.list(t, model.VenueNeutral, 200, 1, 10, 0)
	f.list(t, model.VenueNeutral, 300, 5, 10, 0)
	f.list(t, model.VenueNeutral, 100, 5, 10, 0)
	cfg := f.bot.Config(model.VenueNeutral)
	require.Equal(t, uint32(2), cfg.ItemCount(whiteDurable))

	cfg.ResetItemCounts()
	assert.Zero(t, cfg.ItemCount(whiteDurable))

	f.bot.Recount(model.VenueNeutral, f.market, f.catalog)
	assert.Equal(t, uint32(2), cfg.ItemCount(whiteDurable))
	assert.Equal(t, uint32(1), cfg.ItemCount(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}))
}

func TestListingHooksTrackAnyParticipant(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, model.VenueAlliance, 201, 1, 10, 0)
	rare := model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityRare}

	assert.Equal(t, uint32(1), f.bot.Config(model.VenueAlliance).ItemCount(rare))
	assert.Zero(t, f.bot.Config(model.VenueHorde).ItemCount(rare))

	f.market.House(model.VenueAlliance).Remove(l.ID)
	assert.Zero(t, f.bot.Config(model.VenueAlliance).ItemCount(rare))
}

func TestBotDisable(t *testing.T) {
	bot := NewBotContext(testBot, false)
	assert.True(t, bot.Enabled())
	bot.Disable("identity not found")
	bot.Disable("again")
	assert.False(t, bot.Enabled())
	assert.Equal(t, testBot, bot.NewParticipant())
}

func TestValidateParticipant(t *testing.T) {
	dir := NewMemoryParticipants(testBot)

	ok, err := ValidateParticipant(t.Context(), dir, testBot)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = ValidateParticipant(t.Context(), dir, model.Participant{Account: 8, Character: 70})
	assert.False(t, ok, "character belongs to another account")

	ok, _ = ValidateParticipant(t.Context(), dir, model.Participant{Account: 7})
	assert.False(t, ok)

	ok, _ = ValidateParticipant(t.Context(), nil, testBot)
	assert.True(t, ok)
}
