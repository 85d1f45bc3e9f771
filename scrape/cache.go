package scrape

import (
	"sync"
	"time"
)

// Store caches scrape Results per profile key. Get returns the stored
// Result and when it was stored; staleness policy belongs to the
// caller, the store never evicts on read.
type Store interface {
	Get(profileKey string) (Result, time.Time, bool)
	Put(profileKey string, r Result)
}

type memoryEntry struct {
	res Result
	at  time.Time
}

// MemoryStore is the default process-lifetime Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(profileKey string) (Result, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[profileKey]
	if !ok {
		return Result{}, time.Time{}, false
	}
	return e.res, e.at, true
}

func (m *MemoryStore) Put(profileKey string, r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[profileKey] = memoryEntry{res: r, at: m.now()}
}
