package service

import (
	"context"
	"errors"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

var (
	ErrVenueSettingsNotFound = errors.New("venue settings not found")
	ErrItemNotCreated        = errors.New("item not created")
	errUnsupportedQuality    = errors.New("quality not supported")
)

// Catalog is the read-only item template source.
type Catalog interface {
	Entry(id uint32) (*model.CatalogEntry, bool)
	All() []model.CatalogEntry
}

// RandomPropertyID picks one of the entry's random property variants, 0 when it has none.
func RandomPropertyID(e *model.CatalogEntry, rng RNG) uint32 {
	if e == nil || len(e.RandomProperties) == 0 {
		return 0
	}
	return e.RandomProperties[rng.IntRange(0, len(e.RandomProperties)-1)]
}

// ListingStore persists listing changes. SaveNew writes item and listing as one unit.
type ListingStore interface {
	SaveNew(ctx context.Context, item *model.ItemInstance, l *model.Listing) error
	UpdateBid(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, l *model.Listing) error
	Expire(ctx context.Context, ids []uint64, at time.Time) error
	// Candidates lists listing ids the participant neither owns nor holds the bid on.
	Candidates(ctx context.Context, venue model.VenueID, character uint64) ([]uint64, error)
}

// ParticipantProvider validates the configured bot identity.
type ParticipantProvider interface {
	Exists(ctx context.Context, p model.Participant) (bool, error)
}

// VenueSettingsRepo is the configuration store, one row per venue.
type VenueSettingsRepo interface {
	Load(ctx context.Context, venue model.VenueID) (*model.VenueSettings, error)
	Save(ctx context.Context, s *model.VenueSettings) error
	// UpdateColumns writes a subset of columns of one row in a single transaction.
	UpdateColumns(ctx context.Context, venue model.VenueID, cols map[string]uint32) error
}

// ActivityRepo persists journal entries.
type ActivityRepo interface {
	Insert(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]*model.ActivityLog, error)
}

// ActivityCounters are rolling daily totals per venue and kind.
type ActivityCounters interface {
	AddDaily(ctx context.Context, venue string, kind model.ActivityKind, n int64, amount uint64) error
	GetDaily(ctx context.Context, venue string, kind model.ActivityKind) (int64, uint64, error)
}

type ActivityFilter struct {
	Venue string
	Kind  model.ActivityKind
	Limit int
	From  *time.Time
	To    *time.Time
}

// Match applies the filter to one entry (time bounds inclusive).
func (f ActivityFilter) Match(e *model.ActivityLog) bool {
	if e == nil {
		return false
	}
	if f.Venue != "" && e.Venue != f.Venue {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// ActivitySink receives journal entries from the agents.
type ActivitySink interface {
	Log(entry *model.ActivityLog)
}

type nopSink struct{}

func (nopSink) Log(*model.ActivityLog) {}
