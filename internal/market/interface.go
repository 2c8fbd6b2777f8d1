package market

import "github.com/GoPolymarket/auctionbot/internal/model"

// Observer receives every listing add/remove on any house, from any participant.
type Observer interface {
	OnListingAdded(house model.HouseID, l *model.Listing)
	OnListingRemoved(house model.HouseID, l *model.Listing)
}

// NotificationSink receives delivered auction mail.
type NotificationSink func(n model.Notification)
