package model

import (
	"fmt"
	"strings"
)

// VenueID identifies one of the three auction houses.
type VenueID uint8

const (
	VenueAlliance VenueID = iota
	VenueHorde
	VenueNeutral
)

const VenueCount = 3

// HouseID is the marketplace's own house identifier.
type HouseID uint32

const (
	HouseAlliance HouseID = 2
	HouseHorde    HouseID = 6
	HouseNeutral  HouseID = 7
)

func AllVenues() []VenueID {
	return []VenueID{VenueAlliance, VenueHorde, VenueNeutral}
}

func (v VenueID) String() string {
	switch v {
	case VenueAlliance:
		return "alliance"
	case VenueHorde:
		return "horde"
	case VenueNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

func (v VenueID) House() HouseID {
	switch v {
	case VenueAlliance:
		return HouseAlliance
	case VenueHorde:
		return HouseHorde
	default:
		return HouseNeutral
	}
}

// Faction is the faction template the house belongs to.
func (v VenueID) Faction() uint32 {
	switch v {
	case VenueAlliance:
		return 55
	case VenueHorde:
		return 29
	default:
		return 120
	}
}

// VenueForHouse routes a house id to its venue; unknown houses are neutral.
func VenueForHouse(h HouseID) VenueID {
	switch h {
	case HouseAlliance:
		return VenueAlliance
	case HouseHorde:
		return VenueHorde
	default:
		return VenueNeutral
	}
}

// ParseVenue accepts a venue name or a house id.
func ParseVenue(raw string) (VenueID, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "alliance", "2":
		return VenueAlliance, nil
	case "horde", "6":
		return VenueHorde, nil
	case "neutral", "7":
		return VenueNeutral, nil
	}
	return 0, fmt.Errorf("unknown venue %q", raw)
}

// VenueSettings 拍卖行机器人配置 (每个拍卖行一行)
type VenueSettings struct {
	Venue    VenueID `json:"venue"`
	Name     string  `json:"name"`
	MinItems uint32  `json:"min_items"`
	MaxItems uint32  `json:"max_items"`

	// flat order: 7 trade goods then 7 items
	Percentages [BucketCount]uint32 `json:"percentages"`

	MinPrice    [QualityCount]uint32 `json:"min_price"`
	MaxPrice    [QualityCount]uint32 `json:"max_price"`
	MinBidPrice [QualityCount]uint32 `json:"min_bid_price"`
	MaxBidPrice [QualityCount]uint32 `json:"max_bid_price"`
	MaxStack    [QualityCount]uint32 `json:"max_stack"`
	BuyerPrice  [QualityCount]uint32 `json:"buyer_price"`

	BiddingIntervalMinutes uint32 `json:"bidding_interval_minutes"`
	BidsPerInterval        uint32 `json:"bids_per_interval"`
}

// DefaultVenueSettings mirrors the stock table contents shipped with the bot.
func DefaultVenueSettings(v VenueID) VenueSettings {
	s := VenueSettings{
		Venue:                  v,
		Name:                   v.String(),
		MinItems:               0,
		MaxItems:               0,
		Percentages:            [BucketCount]uint32{0, 27, 12, 10, 1, 0, 0, 0, 10, 30, 8, 2, 0, 0},
		MinPrice:               [QualityCount]uint32{100, 150, 200, 250, 300, 400, 500},
		MaxPrice:               [QualityCount]uint32{150, 250, 300, 350, 450, 550, 650},
		MinBidPrice:            [QualityCount]uint32{70, 70, 80, 75, 80, 80, 80},
		MaxBidPrice:            [QualityCount]uint32{100, 100, 100, 100, 100, 100, 100},
		MaxStack:               [QualityCount]uint32{0, 0, 0, 0, 0, 0, 0},
		BuyerPrice:             [QualityCount]uint32{1, 2, 8, 12, 15, 20, 22},
		BiddingIntervalMinutes: 1,
		BidsPerInterval:        1,
	}
	return s
}
