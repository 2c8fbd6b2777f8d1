package service

import (
	"testing"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, filter ItemFilter, entries []model.CatalogEntry) *ItemIndex {
	t.Helper()
	idx := NewItemIndex()
	idx.Build(entries, filter)
	return idx
}

func TestIndexBucketsSampleCatalog(t *testing.T) {
	idx := buildIndex(t, NewItemFilter(permissiveFilter(), false, nil), sampleCatalog())

	assert.Equal(t, 6, idx.Total())
	assert.Equal(t, []uint32{50}, idx.Members(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityPoor}))
	assert.Equal(t, []uint32{100}, idx.Members(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}))
	assert.Equal(t, []uint32{101}, idx.Members(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityUncommon}))
	assert.Equal(t, []uint32{200, 300}, idx.Members(model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityNormal}))
	assert.Equal(t, []uint32{201}, idx.Members(model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityRare}))

	sizes := idx.Sizes()
	assert.Len(t, sizes, model.BucketCount)
	assert.Equal(t, 2, sizes["white_items"])
}

func TestIndexMembersPassFilterOnce(t *testing.T) {
	filter := NewItemFilter(permissiveFilter(), false, []uint32{101})
	catalog := sampleCatalog()
	idx := buildIndex(t, filter, catalog)

	byID := make(map[uint32]model.CatalogEntry)
	for _, e := range catalog {
		byID[e.ID] = e
	}
	seen := make(map[uint32]bool)
	for _, k := range model.AllBuckets() {
		for _, id := range idx.Members(k) {
			require.False(t, seen[id], "id %d indexed twice", id)
			seen[id] = true
			e := byID[id]
			assert.True(t, filter.Accept(&e), "id %d", id)
			assert.Equal(t, k, e.Bucket())
		}
	}
	assert.False(t, seen[101])
}

func TestIndexEmptyReturnsFalse(t *testing.T) {
	cfg := permissiveFilter()
	cfg.NoBind = false
	cfg.BindWhenEquipped = false

	idx := NewItemIndex()
	assert.False(t, idx.Build(sampleCatalog(), NewItemFilter(cfg, false, nil)))
	assert.Zero(t, idx.Total())

	_, ok := idx.SampleBucket(model.BucketKey{Goods: model.GoodsBulk, Quality: model.QualityNormal}, &scriptedRNG{})
	assert.False(t, ok)
}

func TestSampleBucketUsesRNG(t *testing.T) {
	idx := buildIndex(t, NewItemFilter(permissiveFilter(), false, nil), sampleCatalog())
	rng := &scriptedRNG{ints: []int{1}}

	id, ok := idx.SampleBucket(model.BucketKey{Goods: model.GoodsDurable, Quality: model.QualityNormal}, rng)
	require.True(t, ok)
	assert.Equal(t, uint32(300), id)
	assert.Equal(t, [][2]int{{0, 1}}, rng.intCalls)
}

func TestFilterRules(t *testing.T) {
	base := model.CatalogEntry{
		ID: 5000, Class: model.ClassArmor, Quality: model.QualityUncommon,
		SellPrice: 100, BuyPrice: 400, MaxStack: 1, Bonding: model.BondingOnEquip,
		ItemLevel: 20, RequiredLevel: 15, AllowableClass: 0xFFFFFFFF, Loot: true,
	}

	tests := []struct {
		name   string
		mutate func(cfg *ItemFilter, e *model.CatalogEntry)
		want   bool
	}{
		{"accepted", func(*ItemFilter, *model.CatalogEntry) {}, true},
		{"bonding not allowed", func(f *ItemFilter, _ *model.CatalogEntry) {
			f.AllowedBonding[model.BondingOnEquip] = false
		}, false},
		{"no reference price", func(_ *ItemFilter, e *model.CatalogEntry) { e.SellPrice = 0 }, false},
		{"buy price mode", func(f *ItemFilter, e *model.CatalogEntry) {
			f.UseBuyPrice = true
			e.SellPrice = 0
		}, true},
		{"quality out of range", func(_ *ItemFilter, e *model.CatalogEntry) { e.Quality = 7 }, false},
		{"loot provenance off", func(f *ItemFilter, _ *model.CatalogEntry) { f.Items.Loot = false }, false},
		{"other provenance off", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Loot = false
			f.Items.Other = false
		}, false},
		{"trade goods toggles used for bulk", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Class = model.ClassTradeGoods
			f.Items.Loot = false
		}, true},
		{"denylisted", func(f *ItemFilter, _ *model.CatalogEntry) {
			f.DisabledItems[5000] = struct{}{}
		}, false},
		{"gem", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Class = model.ClassGem
			f.DisableGems = true
		}, false},
		{"conjured", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Class = model.ClassConsumable
			e.Flags = model.FlagConjured
			f.DisableConjured = true
		}, false},
		{"lootable", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Flags = model.FlagHasLoot
			f.DisableLootable = true
		}, false},
		{"money loot", func(f *ItemFilter, e *model.CatalogEntry) {
			e.MinMoneyLoot = 10
			f.DisableMoneyLoot = true
		}, false},
		{"duration", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Duration = 3600
			f.DisableDuration = true
		}, false},
		{"bop below item level", func(f *ItemFilter, e *model.CatalogEntry) {
			e.Bonding = model.BondingOnPickup
			f.AllowedBonding[model.BondingOnPickup] = true
			f.DisableBOPOrQuestNoReqLevel = true
		}, false},
		{"single class disabled", func(f *ItemFilter, e *model.CatalogEntry) {
			e.AllowableClass = 1 << (classMage - 1)
			f.DisabledClassMask = 1 << (classMage - 1)
		}, false},
		{"unused class slot disabled", func(f *ItemFilter, e *model.CatalogEntry) {
			e.AllowableClass = 1 << (classUnused - 1)
			f.DisabledClassMask = 1 << (classUnused - 1)
		}, false},
		{"multi class ignores toggles", func(f *ItemFilter, e *model.CatalogEntry) {
			e.AllowableClass = 1<<(classMage-1) | 1<<(classPriest-1)
			f.DisabledClassMask = 1 << (classMage - 1)
		}, true},
		{"below item level band", func(f *ItemFilter, _ *model.CatalogEntry) { f.ItemBands.BelowLevel = 30 }, false},
		{"above id band", func(f *ItemFilter, _ *model.CatalogEntry) { f.ItemBands.AboveID = 4000 }, false},
		{"trade good band ignored for items", func(f *ItemFilter, _ *model.CatalogEntry) {
			f.TradeGoodBands.AboveReqLevel = 1
		}, true},
		{"skill rank band", func(f *ItemFilter, e *model.CatalogEntry) {
			e.RequiredSkillRank = 300
			f.ItemBands.AboveSkillRank = 250
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewItemFilter(permissiveFilter(), false, nil)
			e := base
			tt.mutate(&f, &e)
			assert.Equal(t, tt.want, f.Accept(&e))
		})
	}
}

func TestNewItemFilterClassMask(t *testing.T) {
	cfg := permissiveFilter()
	cfg.DisableWarriorItems = true
	cfg.DisableUnusedClassItems = true
	cfg.DisableDruidItems = true
	cfg.DisabledItems = []uint32{9}

	f := NewItemFilter(cfg, true, []uint32{10})
	assert.Equal(t, uint32(1|1<<9|1<<10), f.DisabledClassMask)
	assert.Contains(t, f.DisabledItems, uint32(9))
	assert.Contains(t, f.DisabledItems, uint32(10))
	assert.True(t, f.UseBuyPrice)
}
