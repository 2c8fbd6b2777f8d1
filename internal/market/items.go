package market

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// ItemRegistry is the live-item index: instances currently held by listings.
type ItemRegistry struct {
	mu     sync.RWMutex
	items  map[uint64]*model.ItemInstance
	nextID atomic.Uint64
}

func NewItemRegistry(startID uint64) *ItemRegistry {
	r := &ItemRegistry{items: make(map[uint64]*model.ItemInstance)}
	r.nextID.Store(startID)
	return r
}

func (r *ItemRegistry) Create(entryID uint32, count uint32, owner uint64) (*model.ItemInstance, error) {
	if entryID == 0 {
		return nil, fmt.Errorf("create item: entry id is 0")
	}
	if count == 0 {
		count = 1
	}
	item := &model.ItemInstance{
		ID:      r.nextID.Add(1),
		EntryID: entryID,
		Owner:   owner,
		Count:   count,
	}
	r.mu.Lock()
	r.items[item.ID] = item
	r.mu.Unlock()
	return item, nil
}

// Register adopts an instance loaded from storage.
func (r *ItemRegistry) Register(item *model.ItemInstance) {
	if item == nil {
		return
	}
	r.mu.Lock()
	r.items[item.ID] = item
	r.mu.Unlock()
	for {
		cur := r.nextID.Load()
		if item.ID <= cur || r.nextID.CompareAndSwap(cur, item.ID) {
			return
		}
	}
}

func (r *ItemRegistry) Get(id uint64) (*model.ItemInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	return item, ok
}

func (r *ItemRegistry) Release(id uint64) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

func (r *ItemRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
