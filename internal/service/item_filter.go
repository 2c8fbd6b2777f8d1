package service

import (
	"math/bits"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// Character classes, 1-based. Slot 10 is unused but still has a toggle.
const (
	classWarrior     = 1
	classPaladin     = 2
	classHunter      = 3
	classRogue       = 4
	classPriest      = 5
	classDeathKnight = 6
	classShaman      = 7
	classMage        = 8
	classWarlock     = 9
	classUnused      = 10
	classDruid       = 11
)

// levelBands holds the per goods-class thresholds; zero disables a bound.
type levelBands struct {
	BelowLevel, AboveLevel         uint32
	BelowID, AboveID               uint32
	BelowReqLevel, AboveReqLevel   uint32
	BelowSkillRank, AboveSkillRank uint32
}

type provenanceToggles struct {
	Vendor, Loot, Other bool
}

// ItemFilter is the catalog admission predicate.
type ItemFilter struct {
	UseBuyPrice bool

	Items      provenanceToggles
	TradeGoods provenanceToggles

	AllowedBonding map[model.Bonding]bool

	DisablePermEnchant          bool
	DisableConjured             bool
	DisableGems                 bool
	DisableMoney                bool
	DisableMoneyLoot            bool
	DisableLootable             bool
	DisableKeys                 bool
	DisableDuration             bool
	DisableBOPOrQuestNoReqLevel bool

	// bit (class-1) set = items usable only by that class are rejected
	DisabledClassMask uint32

	ItemBands      levelBands
	TradeGoodBands levelBands

	DisabledItems map[uint32]struct{}
}

// NewItemFilter maps configuration onto the predicate.
func NewItemFilter(cfg config.FilterConfig, useBuyPrice bool, disabled []uint32) ItemFilter {
	f := ItemFilter{
		UseBuyPrice: useBuyPrice,
		Items:       provenanceToggles{Vendor: cfg.VendorItems, Loot: cfg.LootItems, Other: cfg.OtherItems},
		TradeGoods:  provenanceToggles{Vendor: cfg.VendorTradeGoods, Loot: cfg.LootTradeGoods, Other: cfg.OtherTradeGoods},
		AllowedBonding: map[model.Bonding]bool{
			model.BondingNone:     cfg.NoBind,
			model.BondingOnPickup: cfg.BindWhenPickedUp,
			model.BondingOnEquip:  cfg.BindWhenEquipped,
			model.BondingOnUse:    cfg.BindWhenUse,
			model.BondingQuest:    cfg.BindQuestItem,
		},
		DisablePermEnchant:          cfg.DisablePermEnchant,
		DisableConjured:             cfg.DisableConjured,
		DisableGems:                 cfg.DisableGems,
		DisableMoney:                cfg.DisableMoney,
		DisableMoneyLoot:            cfg.DisableMoneyLoot,
		DisableLootable:             cfg.DisableLootable,
		DisableKeys:                 cfg.DisableKeys,
		DisableDuration:             cfg.DisableDuration,
		DisableBOPOrQuestNoReqLevel: cfg.DisableBOPOrQuestNoReqLevel,
		ItemBands: levelBands{
			BelowLevel: cfg.ItemsBelowLevel, AboveLevel: cfg.ItemsAboveLevel,
			BelowID: cfg.ItemsBelowID, AboveID: cfg.ItemsAboveID,
			BelowReqLevel: cfg.ItemsBelowReqLevel, AboveReqLevel: cfg.ItemsAboveReqLevel,
			BelowSkillRank: cfg.ItemsBelowSkillRank, AboveSkillRank: cfg.ItemsAboveSkillRank,
		},
		TradeGoodBands: levelBands{
			BelowLevel: cfg.TradeGoodsBelowLevel, AboveLevel: cfg.TradeGoodsAboveLevel,
			BelowID: cfg.TradeGoodsBelowID, AboveID: cfg.TradeGoodsAboveID,
			BelowReqLevel: cfg.TradeGoodsBelowReqLevel, AboveReqLevel: cfg.TradeGoodsAboveReqLevel,
			BelowSkillRank: cfg.TradeGoodsBelowSkillRank, AboveSkillRank: cfg.TradeGoodsAboveSkillRank,
		},
		DisabledItems: make(map[uint32]struct{}, len(disabled)+len(cfg.DisabledItems)),
	}

	classToggles := map[int]bool{
		classWarrior:     cfg.DisableWarriorItems,
		classPaladin:     cfg.DisablePaladinItems,
		classHunter:      cfg.DisableHunterItems,
		classRogue:       cfg.DisableRogueItems,
		classPriest:      cfg.DisablePriestItems,
		classDeathKnight: cfg.DisableDKItems,
		classShaman:      cfg.DisableShamanItems,
		classMage:        cfg.DisableMageItems,
		classWarlock:     cfg.DisableWarlockItems,
		classUnused:      cfg.DisableUnusedClassItems,
		classDruid:       cfg.DisableDruidItems,
	}
	for class, off := range classToggles {
		if off {
			f.DisabledClassMask |= 1 << (class - 1)
		}
	}

	for _, id := range cfg.DisabledItems {
		f.DisabledItems[id] = struct{}{}
	}
	for _, id := range disabled {
		f.DisabledItems[id] = struct{}{}
	}
	return f
}

// Accept reports whether the entry may be listed. Checks short-circuit in a fixed order.
func (f *ItemFilter) Accept(e *model.CatalogEntry) bool {
	if !f.AllowedBonding[e.Bonding] {
		return false
	}

	if e.ReferencePrice(f.UseBuyPrice) == 0 {
		return false
	}

	if !e.Quality.Valid() {
		return false
	}

	toggles := f.Items
	bands := f.ItemBands
	if e.IsBulkGood() {
		toggles = f.TradeGoods
		bands = f.TradeGoodBands
	}
	if !toggles.Vendor && e.Vendor {
		return false
	}
	if !toggles.Loot && e.Loot {
		return false
	}
	if !toggles.Other && !e.Vendor && !e.Loot {
		return false
	}

	log := logger.Component("filter")

	if _, ok := f.DisabledItems[e.ID]; ok {
		log.Debug("item disabled by id", "item", e.ID)
		return false
	}

	switch {
	case f.DisablePermEnchant && e.Class == model.ClassPermanent:
		log.Debug("item disabled", "item", e.ID, "reason", "permanent enchant")
		return false
	case f.DisableConjured && e.IsConjuredConsumable():
		log.Debug("item disabled", "item", e.ID, "reason", "conjured consumable")
		return false
	case f.DisableGems && e.Class == model.ClassGem:
		log.Debug("item disabled", "item", e.ID, "reason", "gem")
		return false
	case f.DisableMoney && e.Class == model.ClassMoney:
		log.Debug("item disabled", "item", e.ID, "reason", "money")
		return false
	case f.DisableMoneyLoot && e.MinMoneyLoot > 0:
		log.Debug("item disabled", "item", e.ID, "reason", "money loot")
		return false
	case f.DisableLootable && e.Flags&model.FlagHasLoot != 0:
		log.Debug("item disabled", "item", e.ID, "reason", "lootable")
		return false
	case f.DisableKeys && e.Class == model.ClassKey:
		log.Debug("item disabled", "item", e.ID, "reason", "key")
		return false
	case f.DisableDuration && e.Duration > 0:
		log.Debug("item disabled", "item", e.ID, "reason", "has duration")
		return false
	case f.DisableBOPOrQuestNoReqLevel &&
		(e.Bonding == model.BondingOnPickup || e.Bonding == model.BondingQuest) &&
		e.RequiredLevel < e.ItemLevel:
		log.Debug("item disabled", "item", e.ID, "reason", "bop or quest below item level")
		return false
	}

	// only single-class items are subject to the class toggles
	if f.DisabledClassMask != 0 && bits.OnesCount32(e.AllowableClass) == 1 {
		if f.DisabledClassMask&e.AllowableClass != 0 {
			log.Debug("item disabled", "item", e.ID, "reason", "class", "class", bits.TrailingZeros32(e.AllowableClass)+1)
			return false
		}
	}

	return bands.accept(e)
}

func (b levelBands) accept(e *model.CatalogEntry) bool {
	if below(b.BelowLevel, e.ItemLevel) || above(b.AboveLevel, e.ItemLevel) {
		return false
	}
	if below(b.BelowID, e.ID) || above(b.AboveID, e.ID) {
		return false
	}
	if below(b.BelowReqLevel, e.RequiredLevel) || above(b.AboveReqLevel, e.RequiredLevel) {
		return false
	}
	if below(b.BelowSkillRank, e.RequiredSkillRank) || above(b.AboveSkillRank, e.RequiredSkillRank) {
		return false
	}
	return true
}

func below(threshold, v uint32) bool { return threshold != 0 && v < threshold }
func above(threshold, v uint32) bool { return threshold != 0 && v > threshold }
