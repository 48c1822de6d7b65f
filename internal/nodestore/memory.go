package nodestore

import (
	"sync"
)

// MemoryBackend is an in-process, map-based Backend: no persistence,
// used for tests and for scratch maps that are never meant to survive
// a restart. Every entry is copied on the way in and out so a caller
// mutating a slice it passed to Store (or received from Fetch) can
// never corrupt the backend's own copy.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[[32]byte]*Entry
	open bool
}

// NewMemoryBackend returns a MemoryBackend. cfg is accepted only to
// satisfy BackendFactory; none of its fields affect behavior.
func NewMemoryBackend(cfg *Config) (Backend, error) {
	return &MemoryBackend{data: make(map[[32]byte]*Entry)}, nil
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Open(createIfMissing bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	return nil
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.data = make(map[[32]byte]*Entry)
	return nil
}

func (b *MemoryBackend) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.open
}

func (b *MemoryBackend) Fetch(hash [32]byte) (*Entry, Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.open {
		return nil, BackendError
	}
	e, ok := b.data[hash]
	if !ok {
		return nil, NotFound
	}
	return cloneEntry(e), OK
}

func (b *MemoryBackend) FetchBatch(keys [][32]byte) ([]*Entry, Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.open {
		return nil, BackendError
	}
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		if e, ok := b.data[k]; ok {
			out[i] = cloneEntry(e)
		}
	}
	return out, OK
}

func (b *MemoryBackend) Store(e *Entry) Status {
	if e == nil {
		return BackendError
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return BackendError
	}
	b.data[e.Hash] = cloneEntry(e)
	return OK
}

func (b *MemoryBackend) StoreBatch(entries []*Entry) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return BackendError
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		b.data[e.Hash] = cloneEntry(e)
	}
	return OK
}

func (b *MemoryBackend) Sync() Status {
	if !b.IsOpen() {
		return BackendError
	}
	return OK
}

func (b *MemoryBackend) ForEach(fn func(*Entry) error) error {
	b.mu.RLock()
	entries := make([]*Entry, 0, len(b.data))
	for _, e := range b.data {
		entries = append(entries, cloneEntry(e))
	}
	b.mu.RUnlock()

	for _, e := range entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBackend) GetWriteLoad() int { return 0 }

func (b *MemoryBackend) SetDeletePath() {}

func (b *MemoryBackend) FdRequired() int { return 0 }

func cloneEntry(e *Entry) *Entry {
	cp := *e
	cp.Data = make([]byte, len(e.Data))
	copy(cp.Data, e.Data)
	return &cp
}
