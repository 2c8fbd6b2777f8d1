package market

import (
	"sync/atomic"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// Marketplace is the in-process auction host: three houses, the live item
// registry and the mail system.
type Marketplace struct {
	houses [model.VenueCount]*House
	items  *ItemRegistry
	mail   *Mailer
	nextID atomic.Uint64
}

type Options struct {
	BotCharacter uint64
	Observer     Observer
	// first ids handed out; restored listings push these forward
	ListingIDStart uint64
	ItemIDStart    uint64
}

func NewMarketplace(opts Options) *Marketplace {
	m := &Marketplace{
		items: NewItemRegistry(opts.ItemIDStart),
		mail:  NewMailer(opts.BotCharacter),
	}
	m.nextID.Store(opts.ListingIDStart)
	for _, v := range model.AllVenues() {
		m.houses[v] = NewHouse(v, opts.Observer)
	}
	return m
}

func (m *Marketplace) House(v model.VenueID) *House {
	if int(v) >= len(m.houses) {
		return m.houses[model.VenueNeutral]
	}
	return m.houses[v]
}

// HouseByID resolves a marketplace house id; unknown ids map to the neutral house.
func (m *Marketplace) HouseByID(h model.HouseID) *House {
	return m.House(model.VenueForHouse(h))
}

func (m *Marketplace) Items() *ItemRegistry { return m.items }

func (m *Marketplace) Mailer() *Mailer { return m.mail }

func (m *Marketplace) NextListingID() uint64 { return m.nextID.Add(1) }

func (m *Marketplace) Deposit(v model.VenueID, d time.Duration, entry *model.CatalogEntry, count uint32) uint64 {
	return Deposit(v, d, entry, count)
}

func (m *Marketplace) OutbidIncrement(l *model.Listing) uint64 {
	return OutbidIncrement(l)
}

// Notify routes auction mail through the bot policy.
func (m *Marketplace) Notify(n model.Notification) {
	if !m.mail.Send(n) {
		logger.Debug("auction mail suppressed", "kind", n.Kind, "listing_id", n.ListingID, "recipient", n.Recipient)
	}
}

// Restore re-adds a persisted listing and its item after a restart.
func (m *Marketplace) Restore(item *model.ItemInstance, l *model.Listing) {
	if item != nil {
		m.items.Register(item)
	}
	for {
		cur := m.nextID.Load()
		if l.ID <= cur || m.nextID.CompareAndSwap(cur, l.ID) {
			break
		}
	}
	m.House(l.Venue).Add(l)
}

// Total is the number of live listings across all houses.
func (m *Marketplace) Total() int {
	n := 0
	for _, h := range m.houses {
		n += h.Count()
	}
	return n
}
