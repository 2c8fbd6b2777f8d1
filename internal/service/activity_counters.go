package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// MemoryActivityCounters 按日累计每个 venue/kind 的次数与金额
type MemoryActivityCounters struct {
	mu      sync.RWMutex
	counts  map[string]int64 // Key: venue:kind:YYYY-MM-DD
	amounts map[string]uint64
	now     func() time.Time
}

func NewMemoryActivityCounters() *MemoryActivityCounters {
	return &MemoryActivityCounters{
		counts:  make(map[string]int64),
		amounts: make(map[string]uint64),
		now:     time.Now,
	}
}

func (s *MemoryActivityCounters) GetDaily(ctx context.Context, venue string, kind model.ActivityKind) (int64, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.makeKey(venue, kind)
	return s.counts[key], s.amounts[key], nil
}

func (s *MemoryActivityCounters) AddDaily(ctx context.Context, venue string, kind model.ActivityKind, n int64, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.makeKey(venue, kind)
	s.counts[key] += n
	s.amounts[key] += amount
	return nil
}

func (s *MemoryActivityCounters) makeKey(venue string, kind model.ActivityKind) string {
	// 按 UTC 日期分割
	return venue + ":" + string(kind) + ":" + s.now().UTC().Format("2006-01-02")
}
