package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/LeJamon/shamapd/internal/nodestore"
	"github.com/LeJamon/shamapd/internal/shamap"
)

// openFamily opens the backend named in cfg.Store, wraps it with a
// read-through cache, and returns both the cache (so the caller can
// Close it) and the shamap.Family adapter in front of it.
func openFamily() (*nodestore.Cache, shamap.Family, error) {
	backend, err := nodestore.CreateBackend(&cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("cli: create backend: %w", err)
	}
	if err := backend.Open(cfg.Store.CreateIfMissing); err != nil {
		return nil, nil, fmt.Errorf("cli: open backend: %w", err)
	}
	cache := nodestore.NewCache(backend, cfg.Store.CacheSize, cfg.Store.CacheTTL)
	return cache, nodestore.NewFamily(cache), nil
}

// openMap opens a Map rooted at rootHashHex, or a brand-new empty Map
// if rootHashHex is empty.
func openMap(rootHashHex string) (*shamap.Map, *nodestore.Cache, error) {
	cache, family, err := openFamily()
	if err != nil {
		return nil, nil, err
	}
	if rootHashHex == "" {
		return shamap.NewMap(family), cache, nil
	}
	hash, err := parseHash(rootHashHex)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	return shamap.NewMapFromHash(family, hash), cache, nil
}

func parseHash(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("cli: invalid hex %q: %w", s, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("cli: hash %q must be 32 bytes, got %d", s, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func objectTypeFlag(s string) shamap.ObjectType {
	switch s {
	case "account":
		return shamap.ObjectAccountNode
	case "transaction":
		return shamap.ObjectTransactionNode
	case "ledger":
		return shamap.ObjectLedger
	default:
		return shamap.ObjectUnknown
	}
}

// flushAndReport arms nothing (the caller is expected to have armed the
// map before mutating) — it flushes whatever is dirty and prints the
// resulting root hash.
func flushAndReport(m *shamap.Map, objType shamap.ObjectType, seq uint32) error {
	flushed, err := m.FlushDirty(1<<20, objType, seq)
	if err != nil {
		return fmt.Errorf("cli: flush: %w", err)
	}
	root := m.RootHash()
	if !quiet {
		fmt.Printf("flushed %d node(s)\n", flushed)
		fmt.Printf("root: %s\n", hex.EncodeToString(root[:]))
	} else {
		fmt.Println(hex.EncodeToString(root[:]))
	}
	return nil
}
