package market

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// MemoryListingStore keeps the persisted view in memory. Used when no
// database is configured, and in tests.
type MemoryListingStore struct {
	market *Marketplace

	mu       sync.Mutex
	saved    map[uint64]model.Listing
	items    map[uint64]model.ItemInstance
	bids     int
	expired  int
	deletes  int
	failNext error
}

func NewMemoryListingStore(m *Marketplace) *MemoryListingStore {
	return &MemoryListingStore{
		market: m,
		saved:  make(map[uint64]model.Listing),
		items:  make(map[uint64]model.ItemInstance),
	}
}

// FailNext makes the next write return err.
func (s *MemoryListingStore) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *MemoryListingStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *MemoryListingStore) SaveNew(_ context.Context, item *model.ItemInstance, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if item != nil {
		s.items[item.ID] = *item
	}
	s.saved[l.ID] = *l
	return nil
}

func (s *MemoryListingStore) UpdateBid(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	cur, ok := s.saved[l.ID]
	if !ok {
		cur = *l
	}
	cur.Bid = l.Bid
	cur.Bidder = l.Bidder
	s.saved[l.ID] = cur
	s.bids++
	return nil
}

func (s *MemoryListingStore) Delete(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	delete(s.saved, l.ID)
	delete(s.items, l.ItemID)
	s.deletes++
	return nil
}

func (s *MemoryListingStore) Expire(_ context.Context, ids []uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	for _, id := range ids {
		if cur, ok := s.saved[id]; ok {
			cur.ExpiresAt = at
			s.saved[id] = cur
			s.expired++
		}
	}
	return nil
}

// Candidates reads from the live houses; the persisted copy mirrors them.
func (s *MemoryListingStore) Candidates(_ context.Context, venue model.VenueID, character uint64) ([]uint64, error) {
	return s.market.House(venue).Candidates(character), nil
}

// Saved returns the persisted copy of one listing.
func (s *MemoryListingStore) Saved(id uint64) (model.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.saved[id]
	return l, ok
}

func (s *MemoryListingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// Stats returns bid updates, expiry updates and deletes seen so far.
func (s *MemoryListingStore) Stats() (bids, expired, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids, s.expired, s.deletes
}
