package model

// Quality 物品品质 (Poor..Artifact)
type Quality uint8

const (
	QualityPoor Quality = iota
	QualityNormal
	QualityUncommon
	QualityRare
	QualityEpic
	QualityLegendary
	QualityArtifact
)

// QualityCount is the number of tiers the bot trades in.
const QualityCount = 7

var qualityColors = [QualityCount]string{"grey", "white", "green", "blue", "purple", "orange", "yellow"}

func (q Quality) Valid() bool {
	return q <= QualityArtifact
}

// Color returns the column suffix used for per-quality settings.
func (q Quality) Color() string {
	if !q.Valid() {
		return ""
	}
	return qualityColors[q]
}

func (q Quality) String() string {
	if c := q.Color(); c != "" {
		return c
	}
	return "unknown"
}

// Bonding 绑定规则
type Bonding uint8

const (
	BondingNone Bonding = iota
	BondingOnPickup
	BondingOnEquip
	BondingOnUse
	BondingQuest
)

type ItemClass uint8

const (
	ClassConsumable ItemClass = 0
	ClassContainer  ItemClass = 1
	ClassWeapon     ItemClass = 2
	ClassGem        ItemClass = 3
	ClassArmor      ItemClass = 4
	ClassReagent    ItemClass = 5
	ClassProjectile ItemClass = 6
	ClassTradeGoods ItemClass = 7
	ClassGeneric    ItemClass = 8
	ClassRecipe     ItemClass = 9
	ClassMoney      ItemClass = 10
	ClassQuiver     ItemClass = 11
	ClassQuest      ItemClass = 12
	ClassKey        ItemClass = 13
	ClassPermanent  ItemClass = 14
	ClassMisc       ItemClass = 15
	ClassGlyph      ItemClass = 16
)

// Item template flags consulted by the admission filter.
const (
	FlagConjured uint32 = 0x2
	FlagHasLoot  uint32 = 0x4
)

// CatalogEntry 物品模板 (只读参考数据)
type CatalogEntry struct {
	ID                uint32    `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Class             ItemClass `json:"class" yaml:"class"`
	SubClass          uint32    `json:"subclass" yaml:"subclass"`
	Quality           Quality   `json:"quality" yaml:"quality"`
	BuyPrice          uint64    `json:"buy_price" yaml:"buy_price"`
	SellPrice         uint64    `json:"sell_price" yaml:"sell_price"`
	MaxStack          uint32    `json:"max_stack" yaml:"max_stack"`
	Bonding           Bonding   `json:"bonding" yaml:"bonding"`
	ItemLevel         uint32    `json:"item_level" yaml:"item_level"`
	RequiredLevel     uint32    `json:"required_level" yaml:"required_level"`
	RequiredSkillRank uint32    `json:"required_skill_rank" yaml:"required_skill_rank"`
	AllowableClass    uint32    `json:"allowable_class" yaml:"allowable_class"`
	Flags             uint32    `json:"flags" yaml:"flags"`
	MinMoneyLoot      uint32    `json:"min_money_loot" yaml:"min_money_loot"`
	Duration          uint32    `json:"duration" yaml:"duration"`
	RandomProperties  []uint32  `json:"random_properties,omitempty" yaml:"random_properties"`

	// 来源: 商人出售 / 掉落表
	Vendor bool `json:"vendor" yaml:"vendor"`
	Loot   bool `json:"loot" yaml:"loot"`
}

func (e *CatalogEntry) IsBulkGood() bool {
	return e.Class == ClassTradeGoods
}

func (e *CatalogEntry) IsConjuredConsumable() bool {
	return e.Class == ClassConsumable && e.Flags&FlagConjured != 0
}

// Bucket returns the index bucket the entry belongs to.
func (e *CatalogEntry) Bucket() BucketKey {
	goods := GoodsDurable
	if e.IsBulkGood() {
		goods = GoodsBulk
	}
	return BucketKey{Goods: goods, Quality: e.Quality}
}

// ReferencePrice picks the buy or sell price depending on mode.
func (e *CatalogEntry) ReferencePrice(useBuyPrice bool) uint64 {
	if useBuyPrice {
		return e.BuyPrice
	}
	return e.SellPrice
}
