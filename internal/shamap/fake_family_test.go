package shamap

import "sync"

// fakeFamily is a minimal in-memory object store, used wherever a test
// wants fetch_external/flush_dirty to round-trip through something
// resembling a real backing store without pulling in the nodestore
// package (which itself imports shamap for the Family contract).
type fakeFamily struct {
	mu    sync.Mutex
	blobs map[[32]byte][]byte
}

func newFakeFamily() *fakeFamily {
	return &fakeFamily{blobs: make(map[[32]byte][]byte)}
}

func (f *fakeFamily) Retrieve(hash [32]byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobs[hash], nil
}

func (f *fakeFamily) Store(objType ObjectType, seq uint32, blob []byte, hash [32]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	f.blobs[hash] = cp
	return nil
}

func (f *fakeFamily) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}
