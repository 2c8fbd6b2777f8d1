package service

import (
	"context"
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// MemoryParticipants is a fixed character directory for runs without a database.
type MemoryParticipants struct {
	mu    sync.RWMutex
	known map[uint64]uint32 // character -> account
}

func NewMemoryParticipants(ps ...model.Participant) *MemoryParticipants {
	d := &MemoryParticipants{known: make(map[uint64]uint32)}
	for _, p := range ps {
		d.Register(p)
	}
	return d
}

func (d *MemoryParticipants) Register(p model.Participant) {
	d.mu.Lock()
	d.known[p.Character] = p.Account
	d.mu.Unlock()
}

func (d *MemoryParticipants) Exists(ctx context.Context, p model.Participant) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	account, ok := d.known[p.Character]
	return ok && account == p.Account, nil
}

// ValidateParticipant checks the configured bot identity. A false result
// disables the simulation; the error is only set for lookup failures.
func ValidateParticipant(ctx context.Context, provider ParticipantProvider, p model.Participant) (bool, error) {
	if p.IsZero() {
		return false, nil
	}
	if provider == nil {
		return true, nil
	}
	return provider.Exists(ctx, p)
}
