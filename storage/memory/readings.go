package memory

import (
	"context"
	"sync"

	"github.com/joeecarter/heart-readings-server/reading"
)

type MemoryConfig struct {
	Seed bool `json:"seed" yaml:"seed"`
}

// MemoryReadingStore keeps readings in insertion order.
type MemoryReadingStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*reading.Reading
}

func NewMemoryReadingStore(initial ...*reading.Reading) *MemoryReadingStore {
	store := &MemoryReadingStore{byID: make(map[string]*reading.Reading)}
	store.put(initial)
	return store
}

func (store *MemoryReadingStore) Name() string {
	return "memory"
}

func (store *MemoryReadingStore) List(ctx context.Context) ([]*reading.Reading, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	out := make([]*reading.Reading, 0, len(store.order))
	for _, id := range store.order {
		out = append(out, store.byID[id])
	}
	return out, nil
}

func (store *MemoryReadingStore) Get(ctx context.Context, id string) (*reading.Reading, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	r, ok := store.byID[id]
	if !ok {
		return nil, reading.ErrNotFound
	}
	return r, nil
}

func (store *MemoryReadingStore) Store(ctx context.Context, readings []*reading.Reading) error {
	store.put(readings)
	return nil
}

// Replace swaps the whole collection, used when a seed file is reloaded.
func (store *MemoryReadingStore) Replace(readings []*reading.Reading) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.order = nil
	store.byID = make(map[string]*reading.Reading, len(readings))
	store.putLocked(readings)
}

func (store *MemoryReadingStore) put(readings []*reading.Reading) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.putLocked(readings)
}

func (store *MemoryReadingStore) putLocked(readings []*reading.Reading) {
	for _, r := range readings {
		if r == nil {
			continue
		}
		if _, exists := store.byID[r.ID]; !exists {
			store.order = append(store.order, r.ID)
		}
		copied := *r
		store.byID[r.ID] = &copied
	}
}

func (store *MemoryReadingStore) Close() error {
	return nil
}
