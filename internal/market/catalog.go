package market

import (
	"sort"
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// MemoryCatalog serves item templates loaded once at startup.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[uint32]*model.CatalogEntry
}

func NewMemoryCatalog(entries []model.CatalogEntry) *MemoryCatalog {
	c := &MemoryCatalog{entries: make(map[uint32]*model.CatalogEntry, len(entries))}
	for i := range entries {
		e := entries[i]
		c.entries[e.ID] = &e
	}
	return c
}

func (c *MemoryCatalog) Entry(id uint32) (*model.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// All returns entries ordered by id.
func (c *MemoryCatalog) All() []model.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
