package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// VenueSettingsStore 内存版配置表 (未配置数据库时使用)
type VenueSettingsStore struct {
	mu   sync.RWMutex
	rows map[model.VenueID]model.VenueSettings
}

func NewVenueSettingsStore() *VenueSettingsStore {
	return &VenueSettingsStore{rows: make(map[model.VenueID]model.VenueSettings)}
}

func (s *VenueSettingsStore) Load(ctx context.Context, venue model.VenueID) (*model.VenueSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[venue]
	if !ok {
		return nil, ErrVenueSettingsNotFound
	}
	return &row, nil
}

func (s *VenueSettingsStore) Save(ctx context.Context, settings *model.VenueSettings) error {
	if settings == nil {
		return fmt.Errorf("save venue settings: nil row")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[settings.Venue] = *settings
	return nil
}

// UpdateColumns applies all columns or none.
func (s *VenueSettingsStore) UpdateColumns(ctx context.Context, venue model.VenueID, cols map[string]uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[venue]
	if !ok {
		return ErrVenueSettingsNotFound
	}
	for name, v := range cols {
		if !row.SetColumn(name, v) {
			return fmt.Errorf("update venue settings: unknown column %q", name)
		}
	}
	s.rows[venue] = row
	return nil
}
