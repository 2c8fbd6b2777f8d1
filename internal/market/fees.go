package market

import (
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/shopspring/decimal"
)

const minAuctionTime = 12 * time.Hour

// depositPercent per house; the neutral house charges more.
func depositPercent(v model.VenueID) int64 {
	if v == model.VenueNeutral {
		return 75
	}
	return 15
}

// Deposit = sell price × count × (duration / 12h) × percent × 3 / 100, floored.
func Deposit(v model.VenueID, d time.Duration, entry *model.CatalogEntry, count uint32) uint64 {
	if entry == nil || d <= 0 {
		return 0
	}
	base := decimal.NewFromInt(int64(entry.SellPrice)).
		Mul(decimal.NewFromInt(int64(count))).
		Mul(decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(minAuctionTime))))
	deposit := base.Mul(decimal.NewFromInt(depositPercent(v) * 3)).Div(decimal.NewFromInt(100))
	if deposit.IsNegative() {
		return 0
	}
	return uint64(deposit.Floor().IntPart())
}

// OutbidIncrement is the minimum raise over the current price: 5% in whole
// percent steps, at least 1.
func OutbidIncrement(l *model.Listing) uint64 {
	if l == nil {
		return 1
	}
	inc := (l.Bid / 100) * 5
	if inc == 0 {
		inc = 1
	}
	return inc
}
