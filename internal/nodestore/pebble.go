package nodestore

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/LeJamon/shamapd/internal/nodestore/compression"
)

// PebbleBackend is the production Backend: an LSM-tree store tuned the
// way a content-addressed, write-once object store wants to be tuned —
// sized memtables, a block cache, and a bloom filter so a miss (common
// when fetch_external resolves a node that was never flushed) doesn't
// cost a full SST probe.
type PebbleBackend struct {
	mu         sync.RWMutex
	db         *pebble.DB
	compressor compression.Compressor
	config     *Config
	open       bool
	deletePath bool
}

// NewPebbleBackend constructs a PebbleBackend from cfg.
func NewPebbleBackend(cfg *Config) (Backend, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	comp, err := compression.Get(cfg.Compressor)
	if err != nil {
		return nil, fmt.Errorf("nodestore: pebble: %w", err)
	}
	return &PebbleBackend{compressor: comp, config: cfg}, nil
}

func (p *PebbleBackend) Name() string { return fmt.Sprintf("pebble(%s)", p.config.Path) }

func (p *PebbleBackend) Open(createIfMissing bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return fmt.Errorf("nodestore: pebble backend already open")
	}
	if createIfMissing {
		if err := os.MkdirAll(p.config.Path, 0o755); err != nil {
			return fmt.Errorf("nodestore: pebble: create dir %s: %w", p.config.Path, err)
		}
	}
	opts := &pebble.Options{
		Cache:                    pebble.NewCache(64 << 20),
		MaxOpenFiles:             1000,
		MemTableSize:             32 << 20,
		MaxConcurrentCompactions: 4,
		L0CompactionThreshold:    2,
		L0StopWritesThreshold:    1000,
		LBaseMaxBytes:            64 << 20,
		Levels: []pebble.LevelOptions{
			{TargetFileSize: 2 << 20, FilterPolicy: bloom.FilterPolicy(10)},
		},
	}
	db, err := pebble.Open(p.config.Path, opts)
	if err != nil {
		return fmt.Errorf("nodestore: pebble: open %s: %w", p.config.Path, err)
	}
	p.db = db
	p.open = true
	return nil
}

func (p *PebbleBackend) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil
	}
	var err error
	if p.db != nil {
		err = p.db.Close()
		p.db = nil
	}
	p.open = false
	if p.deletePath && p.config.Path != "" {
		if rmErr := os.RemoveAll(p.config.Path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func (p *PebbleBackend) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

func (p *PebbleBackend) Fetch(hash [32]byte) (*Entry, Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return nil, BackendError
	}
	value, closer, err := p.db.Get(hash[:])
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}
	defer closer.Close()
	e, err := p.decodeEntry(hash, value)
	if err != nil {
		return nil, DataCorrupt
	}
	return e, OK
}

func (p *PebbleBackend) FetchBatch(keys [][32]byte) ([]*Entry, Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return nil, BackendError
	}
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		value, closer, err := p.db.Get(k[:])
		if err != nil {
			if err == pebble.ErrNotFound {
				continue
			}
			return nil, BackendError
		}
		e, decodeErr := p.decodeEntry(k, value)
		closer.Close()
		if decodeErr != nil {
			return nil, DataCorrupt
		}
		out[i] = e
	}
	return out, OK
}

func (p *PebbleBackend) Store(e *Entry) Status {
	if e == nil {
		return BackendError
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return BackendError
	}
	value, err := p.encodeEntry(e)
	if err != nil {
		return BackendError
	}
	if err := p.db.Set(e.Hash[:], value, pebble.Sync); err != nil {
		return BackendError
	}
	return OK
}

func (p *PebbleBackend) StoreBatch(entries []*Entry) Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return BackendError
	}
	batch := p.db.NewBatch()
	defer batch.Close()
	for _, e := range entries {
		if e == nil {
			continue
		}
		value, err := p.encodeEntry(e)
		if err != nil {
			return BackendError
		}
		if err := batch.Set(e.Hash[:], value, nil); err != nil {
			return BackendError
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return BackendError
	}
	return OK
}

func (p *PebbleBackend) Sync() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return BackendError
	}
	if err := p.db.Flush(); err != nil {
		return BackendError
	}
	return OK
}

func (p *PebbleBackend) ForEach(fn func(*Entry) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return fmt.Errorf("nodestore: pebble backend not open")
	}
	iter := p.db.NewIter(nil)
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != 32 {
			continue
		}
		var hash [32]byte
		copy(hash[:], key)
		e, err := p.decodeEntry(hash, iter.Value())
		if err != nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *PebbleBackend) GetWriteLoad() int { return 0 }

func (p *PebbleBackend) SetDeletePath() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletePath = true
}

func (p *PebbleBackend) FdRequired() int { return 100 }

// encodeEntry lays out a stored record as:
// [4 bytes object type][4 bytes ledger seq][1 byte compressed flag]
// [4 bytes uncompressed length][4 bytes payload length][payload]
//
// The uncompressed length is recorded even when compressed is 0, so
// decodeEntry never has to special-case it; when compression is on, it's
// what lets Decompress allocate its destination buffer exactly once
// instead of guessing.
func (p *PebbleBackend) encodeEntry(e *Entry) ([]byte, error) {
	payload := e.Data
	compressed := byte(0)
	if p.compressor.Name() != "none" {
		c, err := p.compressor.Compress(e.Data, p.config.CompressionLevel)
		if err == nil && len(c) < len(e.Data) {
			payload = c
			compressed = 1
		}
	}

	out := make([]byte, 4+4+1+4+4+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], e.ObjType)
	binary.LittleEndian.PutUint32(out[4:8], e.LedgerSeq)
	out[8] = compressed
	binary.LittleEndian.PutUint32(out[9:13], uint32(len(e.Data)))
	binary.LittleEndian.PutUint32(out[13:17], uint32(len(payload)))
	copy(out[17:], payload)
	return out, nil
}

func (p *PebbleBackend) decodeEntry(hash [32]byte, raw []byte) (*Entry, error) {
	if len(raw) < 17 {
		return nil, fmt.Errorf("nodestore: pebble: entry too short: %d bytes", len(raw))
	}
	objType := binary.LittleEndian.Uint32(raw[0:4])
	ledgerSeq := binary.LittleEndian.Uint32(raw[4:8])
	compressed := raw[8] == 1
	uncompressedLen := binary.LittleEndian.Uint32(raw[9:13])
	length := binary.LittleEndian.Uint32(raw[13:17])
	if int(length) != len(raw)-17 {
		return nil, fmt.Errorf("nodestore: pebble: payload length mismatch")
	}
	payload := raw[17:]

	if compressed {
		decompressed, err := p.compressor.Decompress(payload, int(uncompressedLen))
		if err != nil {
			return nil, fmt.Errorf("nodestore: pebble: decompress: %w", err)
		}
		payload = decompressed
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	return &Entry{Hash: hash, Data: data, ObjType: objType, LedgerSeq: ledgerSeq}, nil
}
