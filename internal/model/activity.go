package model

import (
	"time"
)

type ActivityKind string

const (
	ActivityListed  ActivityKind = "listed"
	ActivityBid     ActivityKind = "bid"
	ActivityBuyout  ActivityKind = "buyout"
	ActivityExpired ActivityKind = "expired"
	ActivityMail    ActivityKind = "mail"
	ActivityCommand ActivityKind = "command"
	ActivityRecount ActivityKind = "recount"
	ActivityAPICall ActivityKind = "api_call"
)

// ActivityLog 代表一次机器人或管理操作的记录
type ActivityLog struct {
	ID        string       `json:"id"`
	Venue     string       `json:"venue"`
	Kind      ActivityKind `json:"kind"`
	ListingID uint64       `json:"listing_id,omitempty"`
	ItemEntry uint32       `json:"item_entry,omitempty"`
	Amount    uint64       `json:"amount,omitempty"`
	Actor     string       `json:"actor,omitempty"` // bot / admin / request id

	// 附加上下文 (报价细节, 命令参数, HTTP 状态等)
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}

type MailKind string

const (
	MailOutbid  MailKind = "outbid"
	MailSuccess MailKind = "success"
	MailWon     MailKind = "won"
	MailExpired MailKind = "expired"
)

// Notification is one auction mail addressed to a character.
type Notification struct {
	Kind      MailKind `json:"kind"`
	Venue     VenueID  `json:"venue"`
	ListingID uint64   `json:"listing_id"`
	ItemEntry uint32   `json:"item_entry"`
	Recipient uint64   `json:"recipient"`
	Amount    uint64   `json:"amount"`
	// Outbid mails carry the new bidder, the new price and the minimum increment.
	NewBidder uint64 `json:"new_bidder,omitempty"`
	NewPrice  uint64 `json:"new_price,omitempty"`
	Increment uint64 `json:"increment,omitempty"`
}
