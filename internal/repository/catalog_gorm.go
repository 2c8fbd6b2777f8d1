package repository

import (
	"context"
	"fmt"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"gorm.io/gorm"
)

// ItemTemplate is the item_template row.
type ItemTemplate struct {
	Entry             uint32 `gorm:"column:entry;primaryKey"`
	Name              string `gorm:"column:name"`
	Class             uint8  `gorm:"column:class"`
	SubClass          uint32 `gorm:"column:subclass"`
	Quality           uint8  `gorm:"column:quality"`
	BuyPrice          uint64 `gorm:"column:buy_price"`
	SellPrice         uint64 `gorm:"column:sell_price"`
	MaxStack          uint32 `gorm:"column:stackable"`
	Bonding           uint8  `gorm:"column:bonding"`
	ItemLevel         uint32 `gorm:"column:item_level"`
	RequiredLevel     uint32 `gorm:"column:required_level"`
	RequiredSkillRank uint32 `gorm:"column:required_skill_rank"`
	AllowableClass    int32  `gorm:"column:allowable_class"`
	Flags             uint32 `gorm:"column:flags"`
	MinMoneyLoot      uint32 `gorm:"column:min_money_loot"`
	Duration          uint32 `gorm:"column:duration"`
}

func (ItemTemplate) TableName() string { return "item_template" }

// VendorItem is one npc_vendor offer.
type VendorItem struct {
	ID   uint   `gorm:"primaryKey"`
	NPC  uint32 `gorm:"column:entry;index"`
	Item uint32 `gorm:"column:item;index"`
}

func (VendorItem) TableName() string { return "npc_vendor" }

// LootItem flattens every loot table into (source, item).
type LootItem struct {
	ID     uint   `gorm:"primaryKey"`
	Source string `gorm:"column:source;size:32"`
	Item   uint32 `gorm:"column:item;index"`
}

func (LootItem) TableName() string { return "auctionbot_loot_items" }

// DisabledItem is one operator-denied catalog id.
type DisabledItem struct {
	Item uint32 `gorm:"column:item;primaryKey"`
}

func (DisabledItem) TableName() string { return "auctionbot_disabled_items" }

// RandomProperty links an item to one of its random property variants.
type RandomProperty struct {
	ID         uint   `gorm:"primaryKey"`
	Entry      uint32 `gorm:"column:entry;index"`
	PropertyID uint32 `gorm:"column:property_id"`
}

func (RandomProperty) TableName() string { return "item_random_properties" }

// GormCatalogRepo reads the item catalog and its provenance lists.
type GormCatalogRepo struct {
	db *gorm.DB
}

func NewGormCatalogRepo(db *gorm.DB) *GormCatalogRepo {
	return &GormCatalogRepo{db: db}
}

func (r *GormCatalogRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&ItemTemplate{}, &VendorItem{}, &LootItem{}, &DisabledItem{}, &RandomProperty{})
}

// Load returns every template with vendor/loot provenance and random properties resolved.
func (r *GormCatalogRepo) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	db := r.db.WithContext(ctx)

	var templates []ItemTemplate
	if err := db.Order("entry").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("load item templates: %w", err)
	}

	var vendor []uint32
	if err := db.Model(&VendorItem{}).Distinct().Pluck("item", &vendor).Error; err != nil {
		return nil, fmt.Errorf("load vendor items: %w", err)
	}
	var loot []uint32
	if err := db.Model(&LootItem{}).Distinct().Pluck("item", &loot).Error; err != nil {
		return nil, fmt.Errorf("load loot items: %w", err)
	}
	var props []RandomProperty
	if err := db.Find(&props).Error; err != nil {
		return nil, fmt.Errorf("load random properties: %w", err)
	}

	return mergeCatalog(templates, vendor, loot, props), nil
}

func (r *GormCatalogRepo) DisabledItems(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	if err := r.db.WithContext(ctx).Model(&DisabledItem{}).Pluck("item", &ids).Error; err != nil {
		return nil, fmt.Errorf("load disabled items: %w", err)
	}
	return ids, nil
}

// Seed writes entries and their provenance; used by dev setups and the inspector.
func (r *GormCatalogRepo) Seed(ctx context.Context, entries []model.CatalogEntry, disabled []uint32) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			row := templateFromEntry(e)
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
			if e.Vendor {
				if err := tx.Create(&VendorItem{Item: e.ID}).Error; err != nil {
					return err
				}
			}
			if e.Loot {
				if err := tx.Create(&LootItem{Source: "seed", Item: e.ID}).Error; err != nil {
					return err
				}
			}
			for _, p := range e.RandomProperties {
				if err := tx.Create(&RandomProperty{Entry: e.ID, PropertyID: p}).Error; err != nil {
					return err
				}
			}
		}
		for _, id := range disabled {
			if err := tx.Save(&DisabledItem{Item: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func mergeCatalog(templates []ItemTemplate, vendor, loot []uint32, props []RandomProperty) []model.CatalogEntry {
	vendorSet := make(map[uint32]bool, len(vendor))
	for _, id := range vendor {
		vendorSet[id] = true
	}
	lootSet := make(map[uint32]bool, len(loot))
	for _, id := range loot {
		lootSet[id] = true
	}
	propsByEntry := make(map[uint32][]uint32)
	for _, p := range props {
		propsByEntry[p.Entry] = append(propsByEntry[p.Entry], p.PropertyID)
	}

	out := make([]model.CatalogEntry, 0, len(templates))
	for _, t := range templates {
		out = append(out, model.CatalogEntry{
			ID:                t.Entry,
			Name:              t.Name,
			Class:             model.ItemClass(t.Class),
			SubClass:          t.SubClass,
			Quality:           model.Quality(t.Quality),
			BuyPrice:          t.BuyPrice,
			SellPrice:         t.SellPrice,
			MaxStack:          t.MaxStack,
			Bonding:           model.Bonding(t.Bonding),
			ItemLevel:         t.ItemLevel,
			RequiredLevel:     t.RequiredLevel,
			RequiredSkillRank: t.RequiredSkillRank,
			AllowableClass:    uint32(t.AllowableClass), // -1 means every class
			Flags:             t.Flags,
			MinMoneyLoot:      t.MinMoneyLoot,
			Duration:          t.Duration,
			RandomProperties:  propsByEntry[t.Entry],
			Vendor:            vendorSet[t.Entry],
			Loot:              lootSet[t.Entry],
		})
	}
	return out
}

func templateFromEntry(e model.CatalogEntry) ItemTemplate {
	return ItemTemplate{
		Entry:             e.ID,
		Name:              e.Name,
		Class:             uint8(e.Class),
		SubClass:          e.SubClass,
		Quality:           uint8(e.Quality),
		BuyPrice:          e.BuyPrice,
		SellPrice:         e.SellPrice,
		MaxStack:          e.MaxStack,
		Bonding:           uint8(e.Bonding),
		ItemLevel:         e.ItemLevel,
		RequiredLevel:     e.RequiredLevel,
		RequiredSkillRank: e.RequiredSkillRank,
		AllowableClass:    int32(e.AllowableClass),
		Flags:             e.Flags,
		MinMoneyLoot:      e.MinMoneyLoot,
		Duration:          e.Duration,
	}
}
