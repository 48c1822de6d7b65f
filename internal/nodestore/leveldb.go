package nodestore

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/LeJamon/shamapd/internal/nodestore/compression"
)

// LevelDBBackend is the alternate persistent Backend, for deployments
// that prefer goleveldb's simpler footprint over pebble's.
type LevelDBBackend struct {
	mu         sync.RWMutex
	db         *leveldb.DB
	compressor compression.Compressor
	config     *Config
	open       bool
	deletePath bool
}

// NewLevelDBBackend constructs a LevelDBBackend from cfg.
func NewLevelDBBackend(cfg *Config) (Backend, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	comp, err := compression.Get(cfg.Compressor)
	if err != nil {
		return nil, fmt.Errorf("nodestore: leveldb: %w", err)
	}
	return &LevelDBBackend{compressor: comp, config: cfg}, nil
}

func (l *LevelDBBackend) Name() string { return fmt.Sprintf("leveldb(%s)", l.config.Path) }

func (l *LevelDBBackend) Open(createIfMissing bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open {
		return fmt.Errorf("nodestore: leveldb backend already open")
	}
	options := &opt.Options{
		ErrorIfMissing: !createIfMissing,
		BlockCacheCapacity: 32 << 20,
		WriteBuffer:        16 << 20,
		Filter:             nil,
	}
	db, err := leveldb.OpenFile(l.config.Path, options)
	if err != nil {
		return fmt.Errorf("nodestore: leveldb: open %s: %w", l.config.Path, err)
	}
	l.db = db
	l.open = true
	return nil
}

func (l *LevelDBBackend) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return nil
	}
	var err error
	if l.db != nil {
		err = l.db.Close()
		l.db = nil
	}
	l.open = false
	if l.deletePath && l.config.Path != "" {
		if rmErr := os.RemoveAll(l.config.Path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func (l *LevelDBBackend) IsOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.open
}

func (l *LevelDBBackend) Fetch(hash [32]byte) (*Entry, Status) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return nil, BackendError
	}
	value, err := l.db.Get(hash[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}
	e, err := l.decodeEntry(hash, value)
	if err != nil {
		return nil, DataCorrupt
	}
	return e, OK
}

func (l *LevelDBBackend) FetchBatch(keys [][32]byte) ([]*Entry, Status) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return nil, BackendError
	}
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		value, err := l.db.Get(k[:], nil)
		if err != nil {
			if err == leveldb.ErrNotFound {
				continue
			}
			return nil, BackendError
		}
		e, decodeErr := l.decodeEntry(k, value)
		if decodeErr != nil {
			return nil, DataCorrupt
		}
		out[i] = e
	}
	return out, OK
}

func (l *LevelDBBackend) Store(e *Entry) Status {
	if e == nil {
		return BackendError
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return BackendError
	}
	value, err := l.encodeEntry(e)
	if err != nil {
		return BackendError
	}
	if err := l.db.Put(e.Hash[:], value, &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}

func (l *LevelDBBackend) StoreBatch(entries []*Entry) Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return BackendError
	}
	batch := new(leveldb.Batch)
	for _, e := range entries {
		if e == nil {
			continue
		}
		value, err := l.encodeEntry(e)
		if err != nil {
			return BackendError
		}
		batch.Put(e.Hash[:], value)
	}
	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}

func (l *LevelDBBackend) Sync() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return BackendError
	}
	// goleveldb has no explicit flush call; every write in Store/StoreBatch
	// already goes through with Sync:true, so there is nothing to force here.
	return OK
}

func (l *LevelDBBackend) ForEach(fn func(*Entry) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.open {
		return fmt.Errorf("nodestore: leveldb backend not open")
	}
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != 32 {
			continue
		}
		var hash [32]byte
		copy(hash[:], key)
		e, err := l.decodeEntry(hash, iter.Value())
		if err != nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (l *LevelDBBackend) GetWriteLoad() int { return 0 }

func (l *LevelDBBackend) SetDeletePath() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deletePath = true
}

func (l *LevelDBBackend) FdRequired() int { return 50 }

// encodeEntry uses the same framing as PebbleBackend.encodeEntry: see its
// comment for the byte layout and why the uncompressed length is carried
// even when compression is off.
func (l *LevelDBBackend) encodeEntry(e *Entry) ([]byte, error) {
	payload := e.Data
	compressed := byte(0)
	if l.compressor.Name() != "none" {
		c, err := l.compressor.Compress(e.Data, l.config.CompressionLevel)
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

func (l *LevelDBBackend) decodeEntry(hash [32]byte, raw []byte) (*Entry, error) {
	if len(raw) < 17 {
		return nil, fmt.Errorf("nodestore: leveldb: entry too short: %d bytes", len(raw))
	}
	objType := binary.LittleEndian.Uint32(raw[0:4])
	ledgerSeq := binary.LittleEndian.Uint32(raw[4:8])
	compressed := raw[8] == 1
	uncompressedLen := binary.LittleEndian.Uint32(raw[9:13])
	length := binary.LittleEndian.Uint32(raw[13:17])
	if int(length) != len(raw)-17 {
		return nil, fmt.Errorf("nodestore: leveldb: payload length mismatch")
	}
	payload := raw[17:]
	if compressed {
		decompressed, err := l.compressor.Decompress(payload, int(uncompressedLen))
		if err != nil {
			return nil, fmt.Errorf("nodestore: leveldb: decompress: %w", err)
		}
		payload = decompressed
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	return &Entry{Hash: hash, Data: data, ObjType: objType, LedgerSeq: ledgerSeq}, nil
}
