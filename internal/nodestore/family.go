package nodestore

import (
	"fmt"

	"github.com/LeJamon/shamapd/internal/shamap"
)

// Family adapts a Backend (optionally wrapped in a Cache) to the two-
// method contract shamap.Map expects from its object store: Retrieve
// for fetch_external, Store for flush_dirty.
type Family struct {
	backend Backend
}

// NewFamily wraps backend (which may itself be a *Cache) as a
// shamap.Family.
func NewFamily(backend Backend) *Family {
	return &Family{backend: backend}
}

func (f *Family) Retrieve(hash [32]byte) ([]byte, error) {
	e, status := f.backend.Fetch(hash)
	switch status {
	case OK:
		return e.Data, nil
	case NotFound:
		return nil, nil
	case DataCorrupt:
		return nil, fmt.Errorf("nodestore: entry %x is corrupt", hash)
	default:
		return nil, fmt.Errorf("nodestore: backend error fetching %x", hash)
	}
}

func (f *Family) Store(objType shamap.ObjectType, seq uint32, blob []byte, hash [32]byte) error {
	e := &Entry{
		Hash:      hash,
		Data:      blob,
		ObjType:   uint32(objType),
		LedgerSeq: seq,
	}
	if status := f.backend.Store(e); status != OK {
		return fmt.Errorf("nodestore: backend error storing %x: %s", hash, status)
	}
	return nil
}

var _ shamap.Family = (*Family)(nil)
