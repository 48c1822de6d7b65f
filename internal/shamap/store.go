package shamap

import (
	"fmt"

	crypto "github.com/LeJamon/shamapd/internal/crypto/common"
	"github.com/LeJamon/shamapd/internal/protocol"
)

// ObjectType classifies which tree a flush belongs to, for backends that
// bucket or prune objects by role (account-state tree vs. transaction
// tree vs. a bare ledger header). It is supplied by the caller of
// FlushDirty, once per call — it describes the tree, not the individual
// node, which is why it's a flush-time parameter rather than a Node field.
type ObjectType uint32

const (
	ObjectUnknown ObjectType = iota
	ObjectLedger
	ObjectAccountNode
	ObjectTransactionNode
)

func (t ObjectType) String() string {
	switch t {
	case ObjectLedger:
		return "ledger"
	case ObjectAccountNode:
		return "account_node"
	case ObjectTransactionNode:
		return "transaction_node"
	default:
		return "unknown"
	}
}

// Family is the external object-store adapter (§6 of the design): the
// only way a Map talks to persistent storage. A Map never knows how
// blobs reach disk — Family is the entire contract.
type Family interface {
	// Retrieve returns the blob stored under hash, or nil if absent.
	Retrieve(hash [32]byte) ([]byte, error)

	// Store persists blob under hash, tagged with the caller-supplied
	// object type and the ledger sequence this flush belongs to. Note
	// this seq is the caller's own ledger-sequence notion, unrelated to
	// the map's internal CoW generation counter of the same name.
	Store(objType ObjectType, seq uint32, blob []byte, hash [32]byte) error
}

// SerializeWithPrefix returns the node's canonical persisted framing:
// the same bytes its node-hash is computed over, byte-for-byte
// compatible with the legacy rippled hash-prefix framing so an existing
// object store can be read without migration.
//
//	Inner:                   HashPrefixInnerNode || 16 * child-hash(32)
//	Leaf, account state:     HashPrefixLeafNode   || payload || tag(32)
//	Leaf, tx without meta:   HashPrefixTransactionID || payload
//	Leaf, tx with meta:      HashPrefixTxNode      || payload || tag(32)
func (n *Node) SerializeWithPrefix() []byte {
	if n.IsInner() {
		out := make([]byte, 0, 4+BranchFactor*32)
		out = append(out, protocol.HashPrefixInnerNode[:]...)
		for i := 0; i < BranchFactor; i++ {
			out = append(out, n.children[i][:]...)
		}
		return out
	}

	tag := n.item.Tag()
	payload := n.item.payloadUnsafe()
	switch n.leafType {
	case LeafAccountState:
		out := make([]byte, 0, 4+len(payload)+32)
		out = append(out, protocol.HashPrefixLeafNode[:]...)
		out = append(out, payload...)
		out = append(out, tag[:]...)
		return out
	case LeafTransactionNoMeta:
		out := make([]byte, 0, 4+len(payload))
		out = append(out, protocol.HashPrefixTransactionID[:]...)
		out = append(out, payload...)
		return out
	case LeafTransactionWithMeta:
		out := make([]byte, 0, 4+len(payload)+32)
		out = append(out, protocol.HashPrefixTxNode[:]...)
		out = append(out, payload...)
		out = append(out, tag[:]...)
		return out
	default:
		return nil
	}
}

// DeserializeFromPrefix parses a legacy-framed blob into a Node at id,
// stamping it with seq. For the one shape whose framing doesn't carry a
// leaf tag (transaction-without-meta) the tag is recomputed from the
// blob's payload as its transaction-ID hash.
//
// Inner nodes are parsed hash-only: the returned Node holds just its
// children's hashes, so descending into a child is a working-set miss
// that triggers another fetch — this mirrors lazy loading, there is
// nothing further to eagerly resolve here.
func DeserializeFromPrefix(id NodeID, seq uint32, blob []byte) (*Node, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("shamap: blob too short for prefix: %d bytes", len(blob))
	}
	var prefix [4]byte
	copy(prefix[:], blob[:4])

	switch prefix {
	case protocol.HashPrefixInnerNode:
		return deserializeInner(id, seq, blob)
	case protocol.HashPrefixLeafNode:
		return deserializeLeaf(id, seq, blob, LeafAccountState)
	case protocol.HashPrefixTransactionID:
		return deserializeTxNoMeta(id, seq, blob)
	case protocol.HashPrefixTxNode:
		return deserializeLeaf(id, seq, blob, LeafTransactionWithMeta)
	default:
		return nil, fmt.Errorf("shamap: unknown hash prefix %x", prefix)
	}
}

func deserializeInner(id NodeID, seq uint32, blob []byte) (*Node, error) {
	const want = 4 + BranchFactor*32
	if len(blob) != want {
		return nil, fmt.Errorf("shamap: invalid inner node blob size: got %d, want %d", len(blob), want)
	}
	n := &Node{id: id, seq: seq, kind: kindInner}
	for i := 0; i < BranchFactor; i++ {
		start := 4 + i*32
		var h [32]byte
		copy(h[:], blob[start:start+32])
		if h != ([32]byte{}) {
			n.children[i] = h
			n.branchBits |= 1 << uint(i)
		}
	}
	n.recomputeHash()
	return n, nil
}

// deserializeLeaf handles the two framings that carry an explicit
// trailing 32-byte tag: account-state and tx-with-meta.
func deserializeLeaf(id NodeID, seq uint32, blob []byte, lt LeafType) (*Node, error) {
	if len(blob) < 4+32 {
		return nil, fmt.Errorf("shamap: leaf blob too short: %d bytes", len(blob))
	}
	body := blob[4:]
	keyStart := len(body) - 32
	var tag [32]byte
	copy(tag[:], body[keyStart:])
	payload := body[:keyStart]

	item := NewItem(tag, payload)
	n := &Node{id: id, seq: seq, kind: kindLeaf, item: item, leafType: lt}
	n.recomputeHash()
	return n, nil
}

func deserializeTxNoMeta(id NodeID, seq uint32, blob []byte) (*Node, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("shamap: tx blob too short: %d bytes", len(blob))
	}
	payload := blob[4:]
	tag := crypto.Sha512Half(protocol.HashPrefixTransactionID[:], payload)
	item := NewItem(tag, payload)
	n := &Node{id: id, seq: seq, kind: kindLeaf, item: item, leafType: LeafTransactionNoMeta}
	n.recomputeHash()
	return n, nil
}
