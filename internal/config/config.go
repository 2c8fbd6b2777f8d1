package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Bot      BotConfig      `mapstructure:"bot"`
	Filter   FilterConfig   `mapstructure:"filter"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type AuthConfig struct {
	AdminKey        string  `mapstructure:"admin_key"`
	ReadOnly        bool    `mapstructure:"read_only"`
	AdminRatePerSec float64 `mapstructure:"admin_rate_per_sec"`
	AdminBurst      int     `mapstructure:"admin_burst"`
}

type DatabaseConfig struct {
	DSN                   string `mapstructure:"dsn"`
	ActivityRetentionDays int    `mapstructure:"activity_retention_days"`
}

type RedisConfig struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	ActivityListKey string `mapstructure:"activity_list_key"`
	ActivityListMax int    `mapstructure:"activity_list_max"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CatalogConfig struct {
	// Optional YAML seed; when empty the catalog is read from the database.
	File string `mapstructure:"file"`
}

// BotConfig 机器人全局开关
type BotConfig struct {
	EnableSeller            bool   `mapstructure:"enable_seller"`
	EnableBuyer             bool   `mapstructure:"enable_buyer"`
	UseBuyPriceForSeller    bool   `mapstructure:"use_buy_price_for_seller"`
	UseBuyPriceForBuyer     bool   `mapstructure:"use_buy_price_for_buyer"`
	Account                 uint32 `mapstructure:"account"`
	Character               uint64 `mapstructure:"character"`
	ItemsPerCycle           uint32 `mapstructure:"items_per_cycle"`
	TickSeconds             int    `mapstructure:"tick_seconds"`
	AllowTwoSideInteraction bool   `mapstructure:"allow_two_side_interaction"`
	Seed                    uint64 `mapstructure:"seed"` // 0 = time based
}

// FilterConfig drives catalog admission. Zero band thresholds disable the band.
type FilterConfig struct {
	VendorItems      bool `mapstructure:"vendor_items"`
	LootItems        bool `mapstructure:"loot_items"`
	OtherItems       bool `mapstructure:"other_items"`
	VendorTradeGoods bool `mapstructure:"vendor_trade_goods"`
	LootTradeGoods   bool `mapstructure:"loot_trade_goods"`
	OtherTradeGoods  bool `mapstructure:"other_trade_goods"`

	NoBind           bool `mapstructure:"no_bind"`
	BindWhenPickedUp bool `mapstructure:"bind_when_picked_up"`
	BindWhenEquipped bool `mapstructure:"bind_when_equipped"`
	BindWhenUse      bool `mapstructure:"bind_when_use"`
	BindQuestItem    bool `mapstructure:"bind_quest_item"`

	DisablePermEnchant          bool `mapstructure:"disable_perm_enchant"`
	DisableConjured             bool `mapstructure:"disable_conjured"`
	DisableGems                 bool `mapstructure:"disable_gems"`
	DisableMoney                bool `mapstructure:"disable_money"`
	DisableMoneyLoot            bool `mapstructure:"disable_money_loot"`
	DisableLootable             bool `mapstructure:"disable_lootable"`
	DisableKeys                 bool `mapstructure:"disable_keys"`
	DisableDuration             bool `mapstructure:"disable_duration"`
	DisableBOPOrQuestNoReqLevel bool `mapstructure:"disable_bop_or_quest_no_req_level"`

	DisableWarriorItems     bool `mapstructure:"disable_warrior_items"`
	DisablePaladinItems     bool `mapstructure:"disable_paladin_items"`
	DisableHunterItems      bool `mapstructure:"disable_hunter_items"`
	DisableRogueItems       bool `mapstructure:"disable_rogue_items"`
	DisablePriestItems      bool `mapstructure:"disable_priest_items"`
	DisableDKItems          bool `mapstructure:"disable_dk_items"`
	DisableShamanItems      bool `mapstructure:"disable_shaman_items"`
	DisableMageItems        bool `mapstructure:"disable_mage_items"`
	DisableWarlockItems     bool `mapstructure:"disable_warlock_items"`
	DisableUnusedClassItems bool `mapstructure:"disable_unused_class_items"`
	DisableDruidItems       bool `mapstructure:"disable_druid_items"`

	ItemsBelowLevel          uint32 `mapstructure:"disable_items_below_level"`
	ItemsAboveLevel          uint32 `mapstructure:"disable_items_above_level"`
	TradeGoodsBelowLevel     uint32 `mapstructure:"disable_tgs_below_level"`
	TradeGoodsAboveLevel     uint32 `mapstructure:"disable_tgs_above_level"`
	ItemsBelowID             uint32 `mapstructure:"disable_items_below_guid"`
	ItemsAboveID             uint32 `mapstructure:"disable_items_above_guid"`
	TradeGoodsBelowID        uint32 `mapstructure:"disable_tgs_below_guid"`
	TradeGoodsAboveID        uint32 `mapstructure:"disable_tgs_above_guid"`
	ItemsBelowReqLevel       uint32 `mapstructure:"disable_items_below_req_level"`
	ItemsAboveReqLevel       uint32 `mapstructure:"disable_items_above_req_level"`
	TradeGoodsBelowReqLevel  uint32 `mapstructure:"disable_tgs_below_req_level"`
	TradeGoodsAboveReqLevel  uint32 `mapstructure:"disable_tgs_above_req_level"`
	ItemsBelowSkillRank      uint32 `mapstructure:"disable_items_below_req_skill_rank"`
	ItemsAboveSkillRank      uint32 `mapstructure:"disable_items_above_req_skill_rank"`
	TradeGoodsBelowSkillRank uint32 `mapstructure:"disable_tgs_below_req_skill_rank"`
	TradeGoodsAboveSkillRank uint32 `mapstructure:"disable_tgs_above_req_skill_rank"`

	DisabledItems []uint32 `mapstructure:"disabled_items"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. AUCTIONBOT_BOT_ACCOUNT
	v.SetEnvPrefix("auctionbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.admin_key", "")
	v.SetDefault("auth.read_only", false)
	v.SetDefault("auth.admin_rate_per_sec", 5.0)
	v.SetDefault("auth.admin_burst", 10)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.activity_retention_days", 30)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.activity_list_key", "auctionbot_activity")
	v.SetDefault("redis.activity_list_max", 10000)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("catalog.file", "")

	v.SetDefault("bot.enable_seller", false)
	v.SetDefault("bot.enable_buyer", false)
	v.SetDefault("bot.use_buy_price_for_seller", false)
	v.SetDefault("bot.use_buy_price_for_buyer", false)
	v.SetDefault("bot.account", 0)
	v.SetDefault("bot.character", 0)
	v.SetDefault("bot.items_per_cycle", 200)
	v.SetDefault("bot.tick_seconds", 60)
	v.SetDefault("bot.allow_two_side_interaction", false)
	v.SetDefault("bot.seed", 0)

	v.SetDefault("filter.vendor_items", false)
	v.SetDefault("filter.loot_items", true)
	v.SetDefault("filter.other_items", false)
	v.SetDefault("filter.vendor_trade_goods", false)
	v.SetDefault("filter.loot_trade_goods", true)
	v.SetDefault("filter.other_trade_goods", false)
	v.SetDefault("filter.no_bind", true)
	v.SetDefault("filter.bind_when_picked_up", false)
	v.SetDefault("filter.bind_when_equipped", true)
	v.SetDefault("filter.bind_when_use", true)
	v.SetDefault("filter.bind_quest_item", false)
	for _, key := range []string{
		"disable_perm_enchant", "disable_conjured", "disable_gems", "disable_money",
		"disable_money_loot", "disable_lootable", "disable_keys", "disable_duration",
		"disable_bop_or_quest_no_req_level",
		"disable_warrior_items", "disable_paladin_items", "disable_hunter_items", "disable_rogue_items",
		"disable_priest_items", "disable_dk_items", "disable_shaman_items", "disable_mage_items",
		"disable_warlock_items", "disable_unused_class_items", "disable_druid_items",
	} {
		v.SetDefault("filter."+key, false)
	}
	for _, key := range []string{
		"disable_items_below_level", "disable_items_above_level",
		"disable_tgs_below_level", "disable_tgs_above_level",
		"disable_items_below_guid", "disable_items_above_guid",
		"disable_tgs_below_guid", "disable_tgs_above_guid",
		"disable_items_below_req_level", "disable_items_above_req_level",
		"disable_tgs_below_req_level", "disable_tgs_above_req_level",
		"disable_items_below_req_skill_rank", "disable_items_above_req_skill_rank",
		"disable_tgs_below_req_skill_rank", "disable_tgs_above_req_skill_rank",
	} {
		v.SetDefault("filter."+key, 0)
	}
	v.SetDefault("filter.disabled_items", []uint32{})
}
