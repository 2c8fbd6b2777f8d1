package model

import "fmt"

// Per-quality column families of the venue settings row.
const (
	ColMinPrice    = "min_price"
	ColMaxPrice    = "max_price"
	ColMinBidPrice = "min_bid_price"
	ColMaxBidPrice = "max_bid_price"
	ColMaxStack    = "max_stack"
	ColBuyerPrice  = "buyer_price"

	ColMinItems        = "min_items"
	ColMaxItems        = "max_items"
	ColBiddingInterval = "bidding_interval"
	ColBidsPerInterval = "bids_per_interval"
)

// QualityFamilies lists the per-quality families in row order.
var QualityFamilies = []string{ColMinPrice, ColMaxPrice, ColMinBidPrice, ColMaxBidPrice, ColMaxStack, ColBuyerPrice}

// QualityColumn names one per-quality column, e.g. min_price_green.
func QualityColumn(family string, q Quality) string {
	return fmt.Sprintf("%s_%s", family, q.Color())
}

// PercentColumn names one percentage column, e.g. percent_green_tradegoods.
func PercentColumn(k BucketKey) string {
	return "percent_" + k.String()
}

// SettingsColumns lists every tunable column in row order.
func SettingsColumns() []string {
	cols := []string{ColMinItems, ColMaxItems}
	for _, k := range AllBuckets() {
		cols = append(cols, PercentColumn(k))
	}
	for _, fam := range QualityFamilies {
		for q := Quality(0); q < QualityCount; q++ {
			cols = append(cols, QualityColumn(fam, q))
		}
	}
	return append(cols, ColBiddingInterval, ColBidsPerInterval)
}

func (s *VenueSettings) qualityFamily(family string) *[QualityCount]uint32 {
	switch family {
	case ColMinPrice:
		return &s.MinPrice
	case ColMaxPrice:
		return &s.MaxPrice
	case ColMinBidPrice:
		return &s.MinBidPrice
	case ColMaxBidPrice:
		return &s.MaxBidPrice
	case ColMaxStack:
		return &s.MaxStack
	case ColBuyerPrice:
		return &s.BuyerPrice
	}
	return nil
}

// Columns flattens the row into column -> value.
func (s *VenueSettings) Columns() map[string]uint32 {
	out := make(map[string]uint32, 2+BucketCount+len(QualityFamilies)*QualityCount+2)
	out[ColMinItems] = s.MinItems
	out[ColMaxItems] = s.MaxItems
	for _, k := range AllBuckets() {
		out[PercentColumn(k)] = s.Percentages[k.Index()]
	}
	for _, fam := range QualityFamilies {
		arr := s.qualityFamily(fam)
		for q := Quality(0); q < QualityCount; q++ {
			out[QualityColumn(fam, q)] = arr[q]
		}
	}
	out[ColBiddingInterval] = s.BiddingIntervalMinutes
	out[ColBidsPerInterval] = s.BidsPerInterval
	return out
}

// SetColumn writes one column by name. Unknown names report false.
func (s *VenueSettings) SetColumn(name string, v uint32) bool {
	switch name {
	case ColMinItems:
		s.MinItems = v
		return true
	case ColMaxItems:
		s.MaxItems = v
		return true
	case ColBiddingInterval:
		s.BiddingIntervalMinutes = v
		return true
	case ColBidsPerInterval:
		s.BidsPerInterval = v
		return true
	}
	for _, k := range AllBuckets() {
		if name == PercentColumn(k) {
			s.Percentages[k.Index()] = v
			return true
		}
	}
	for _, fam := range QualityFamilies {
		arr := s.qualityFamily(fam)
		for q := Quality(0); q < QualityCount; q++ {
			if name == QualityColumn(fam, q) {
				arr[q] = v
				return true
			}
		}
	}
	return false
}
