package market

import (
	"sort"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// House is the in-memory listing collection of one venue
type House struct {
	venue       model.VenueID
	listings    map[uint64]*model.Listing
	observer    Observer
	LastUpdated time.Time
	mu          sync.RWMutex
}

func NewHouse(venue model.VenueID, observer Observer) *House {
	return &House{
		venue:    venue,
		listings: make(map[uint64]*model.Listing),
		observer: observer,
	}
}

func (h *House) Venue() model.VenueID { return h.venue }

func (h *House) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listings)
}

// Add stores a copy of the listing and notifies the observer.
func (h *House) Add(l *model.Listing) {
	if l == nil {
		return
	}
	stored := *l
	stored.Venue = h.venue

	h.mu.Lock()
	_, replaced := h.listings[stored.ID]
	h.listings[stored.ID] = &stored
	h.LastUpdated = time.Now()
	h.mu.Unlock()

	if h.observer != nil && !replaced {
		cp := stored
		h.observer.OnListingAdded(h.venue.House(), &cp)
	}
}

func (h *House) Remove(id uint64) (*model.Listing, bool) {
	h.mu.Lock()
	l, ok := h.listings[id]
	if ok {
		delete(h.listings, id)
		h.LastUpdated = time.Now()
	}
	h.mu.Unlock()

	if !ok {
		return nil, false
	}
	cp := *l
	if h.observer != nil {
		h.observer.OnListingRemoved(h.venue.House(), &cp)
	}
	return &cp, true
}

// Get returns a copy; callers never hold the stored pointer.
func (h *House) Get(id uint64) (*model.Listing, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	l, ok := h.listings[id]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

// SetBid records a new standing bid and returns the updated copy.
func (h *House) SetBid(id uint64, bidder, amount uint64) (*model.Listing, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.listings[id]
	if !ok {
		return nil, false
	}
	l.Bidder = bidder
	l.Bid = amount
	h.LastUpdated = time.Now()
	cp := *l
	return &cp, true
}

// SetExpiry moves the expiry of one listing.
func (h *House) SetExpiry(id uint64, at time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.listings[id]
	if !ok {
		return false
	}
	l.ExpiresAt = at
	return true
}

// List returns copies ordered by id.
func (h *House) List() []*model.Listing {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*model.Listing, 0, len(h.listings))
	for _, l := range h.listings {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Candidates lists ids neither owned by nor currently bid by the character.
func (h *House) Candidates(character uint64) []uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint64, 0, len(h.listings))
	for id, l := range h.listings {
		if l.Owner == character || l.Bidder == character {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Due returns copies of listings expired at now.
func (h *House) Due(now time.Time) []*model.Listing {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*model.Listing
	for _, l := range h.listings {
		if l.Expired(now) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
