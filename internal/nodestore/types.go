// Package nodestore provides the persistent backing store behind a
// shamap.Map: content-addressed, hash-keyed blob storage with pluggable
// backends (in-memory, PebbleDB, LevelDB), an LRU read-through cache,
// and a Family adapter that lets a shamap.Map talk to any of them
// without knowing which one it's using.
package nodestore

import "fmt"

// Status reports the outcome of a single Backend operation.
type Status int

const (
	// OK indicates the operation completed successfully.
	OK Status = iota
	// NotFound indicates the requested key has no entry.
	NotFound
	// DataCorrupt indicates a stored entry failed to decode.
	DataCorrupt
	// BackendError indicates the underlying store reported a failure.
	BackendError
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case DataCorrupt:
		return "DataCorrupt"
	case BackendError:
		return "BackendError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Entry is one stored record: a content-addressed blob plus the ledger
// sequence and object type it was flushed under.
type Entry struct {
	Hash      [32]byte
	Data      []byte
	ObjType   uint32
	LedgerSeq uint32
}

// Backend is the storage-engine contract every nodestore implementation
// satisfies: plain get/put by content hash, batch variants for the
// common case of flushing or syncing many nodes at once, and the handful
// of lifecycle and introspection calls a production deployment needs.
type Backend interface {
	// Name returns a human-readable identifier, including enough of the
	// backend's configuration (e.g. its path) to tell two instances apart
	// in a log line.
	Name() string

	// Open prepares the backend for use, creating its storage location
	// if createIfMissing is set and it doesn't already exist.
	Open(createIfMissing bool) error

	// Close releases the backend's resources. Closing twice is a no-op.
	Close() error

	// IsOpen reports whether Open has succeeded and Close has not since
	// been called.
	IsOpen() bool

	// Fetch retrieves the entry stored under hash.
	Fetch(hash [32]byte) (*Entry, Status)

	// FetchBatch retrieves multiple entries; result[i] is nil wherever
	// keys[i] wasn't found.
	FetchBatch(keys [][32]byte) ([]*Entry, Status)

	// Store persists a single entry.
	Store(e *Entry) Status

	// StoreBatch persists multiple entries, as a single underlying
	// write where the backend supports one.
	StoreBatch(entries []*Entry) Status

	// Sync forces any buffered writes to durable storage.
	Sync() Status

	// ForEach calls fn once per stored entry, stopping early if fn
	// returns an error.
	ForEach(fn func(*Entry) error) error

	// GetWriteLoad estimates the backend's pending write volume, for
	// callers that want to throttle flush_dirty against it.
	GetWriteLoad() int

	// SetDeletePath marks the backend's storage location for removal on
	// Close — used by ephemeral test and scratch stores.
	SetDeletePath()

	// FdRequired estimates the file descriptors this backend needs open
	// concurrently, for a process sizing its ulimit.
	FdRequired() int
}

// BackendFactory constructs a Backend from a Config.
type BackendFactory func(cfg *Config) (Backend, error)

var backendRegistry = make(map[string]BackendFactory)

// RegisterBackend makes a backend constructor available under name, for
// CreateBackend and for config-driven selection (Config.Backend, loaded
// from the store.backend setting by internal/config, names one of these).
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// CreateBackend constructs the backend named by cfg.Backend.
func CreateBackend(cfg *Config) (Backend, error) {
	factory, ok := backendRegistry[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("nodestore: unknown backend %q", cfg.Backend)
	}
	return factory(cfg)
}

func init() {
	RegisterBackend("memory", func(cfg *Config) (Backend, error) { return NewMemoryBackend(cfg) })
	RegisterBackend("pebble", NewPebbleBackend)
	RegisterBackend("leveldb", NewLevelDBBackend)
}
