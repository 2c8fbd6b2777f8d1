package model

import "time"

// Allowed listing durations.
var ListingDurations = [3]time.Duration{12 * time.Hour, 24 * time.Hour, 48 * time.Hour}

// ItemInstance 拍卖物品实例
type ItemInstance struct {
	ID               uint64 `json:"id" db:"id"`
	EntryID          uint32 `json:"entry_id" db:"entry_id"`
	Owner            uint64 `json:"owner" db:"owner"`
	Count            uint32 `json:"count" db:"count"`
	RandomPropertyID uint32 `json:"random_property_id" db:"random_property_id"`
}

// Listing 拍卖条目
type Listing struct {
	ID        uint64    `json:"id" db:"id"`
	Venue     VenueID   `json:"venue" db:"venue"`
	ItemID    uint64    `json:"item_id" db:"item_id"`
	ItemEntry uint32    `json:"item_entry" db:"item_entry"`
	ItemCount uint32    `json:"item_count" db:"item_count"`
	Owner     uint64    `json:"owner" db:"owner"`
	StartBid  uint64    `json:"start_bid" db:"start_bid"`
	Buyout    uint64    `json:"buyout" db:"buyout"`
	Bid       uint64    `json:"bid" db:"bid"`
	Bidder    uint64    `json:"bidder" db:"bidder"`
	Deposit   uint64    `json:"deposit" db:"deposit"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// CurrentPrice is the standing bid, or the start bid when nobody has bid yet.
func (l *Listing) CurrentPrice() uint64 {
	if l.Bid != 0 {
		return l.Bid
	}
	return l.StartBid
}

func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !now.Before(l.ExpiresAt)
}
