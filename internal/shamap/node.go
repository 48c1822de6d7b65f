package shamap

import (
	"fmt"

	crypto "github.com/LeJamon/shamapd/internal/crypto/common"
	"github.com/LeJamon/shamapd/internal/protocol"
)

// LeafType distinguishes what kind of value a leaf carries. It
// participates in a leaf's serialization and hence in its hash, so it
// must be threaded through every place a leaf is created or loaded.
type LeafType uint8

const (
	LeafAccountState LeafType = iota + 1
	LeafTransactionNoMeta
	LeafTransactionWithMeta
)

func (t LeafType) String() string {
	switch t {
	case LeafAccountState:
		return "account_state"
	case LeafTransactionNoMeta:
		return "transaction"
	case LeafTransactionWithMeta:
		return "transaction+meta"
	default:
		return fmt.Sprintf("leaf_type(%d)", uint8(t))
	}
}

// kind tags which of the tree's three node shapes a Node currently is.
type kind uint8

const (
	kindTransientEmpty kind = iota
	kindInner
	kindLeaf
)

// Node is a single slot in the tree. It is deliberately a single tagged
// struct rather than an interface with per-shape implementations: the
// three shapes (§3 of the design) share every field except the ones
// specific to their own kind, CoW only ever needs a flat value copy, and
// a node never needs to dispatch dynamically on its own shape from code
// that doesn't already know which shape it's looking at (every caller
// either branches on IsLeaf/IsInner first or is leaf-only/inner-only by
// construction).
//
// A Node never holds a pointer to its parent: children are named by
// NodeID and hash only, so CoW'ing a child never forces CoW of its
// ancestors, and a Node can be shared, unchanged, between a map and any
// number of its snapshots.
type Node struct {
	id   NodeID
	seq  uint32
	hash [32]byte
	kind kind

	// inner-only
	children   [BranchFactor][32]byte
	branchBits uint16

	// leaf-only
	item     *Item
	leafType LeafType
}

// newInnerNode returns a freshly made, empty Inner node at id, stamped
// with seq. Its hash is computed immediately: an "empty" inner node
// (all branches zero) still hashes to a well-defined, non-zero value.
func newInnerNode(id NodeID, seq uint32) *Node {
	n := &Node{id: id, seq: seq, kind: kindInner}
	n.recomputeHash()
	return n
}

// newLeafNode returns a new Leaf node at id holding item, stamped with seq.
func newLeafNode(id NodeID, seq uint32, item *Item, lt LeafType) (*Node, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	n := &Node{id: id, seq: seq, kind: kindLeaf, item: item, leafType: lt}
	n.recomputeHash()
	return n, nil
}

// ID returns the node's position in the tree.
func (n *Node) ID() NodeID { return n.id }

// Seq returns the sequence number this node was stamped with: the
// generation of the map that owns it exclusively.
func (n *Node) Seq() uint32 { return n.seq }

// Hash returns the node's cached node-hash.
func (n *Node) Hash() [32]byte { return n.hash }

// IsLeaf reports whether this node holds an item.
func (n *Node) IsLeaf() bool { return n.kind == kindLeaf }

// IsInner reports whether this node holds branches.
func (n *Node) IsInner() bool { return n.kind == kindInner }

// IsEmptyBranch reports whether branch i of an Inner node has no child.
func (n *Node) IsEmptyBranch(i uint8) bool {
	return n.branchBits&(1<<i) == 0
}

// ChildHash returns the hash stored at branch i (zero if empty).
func (n *Node) ChildHash(i uint8) [32]byte {
	return n.children[i]
}

// ChildNodeID returns the NodeID that would hold branch i's child.
func (n *Node) ChildNodeID(i uint8) (NodeID, error) {
	return n.id.Child(i)
}

// SelectBranch returns which branch of this Inner node a key falls into.
func (n *Node) SelectBranch(tag [32]byte) uint8 {
	return n.id.Branch(tag)
}

// BranchCount returns the number of non-empty branches.
func (n *Node) BranchCount() int {
	count := 0
	for i := 0; i < BranchFactor; i++ {
		if n.branchBits&(1<<i) != 0 {
			count++
		}
	}
	return count
}

// SetChildHash sets branch i's child hash and recomputes this node's own
// hash. It reports whether the node's hash actually changed, which
// dirty_up uses to detect a structural bug (see LogicError in map.go).
func (n *Node) SetChildHash(i uint8, h [32]byte) bool {
	old := n.hash
	n.children[i] = h
	if h == ([32]byte{}) {
		n.branchBits &^= 1 << i
	} else {
		n.branchBits |= 1 << i
	}
	n.recomputeHash()
	return n.hash != old
}

// MakeInner converts a transient-empty or leaf node into an empty Inner
// node in place, used mid-split in add_give_item.
func (n *Node) MakeInner() {
	n.kind = kindInner
	n.children = [BranchFactor][32]byte{}
	n.branchBits = 0
	n.item = nil
	n.recomputeHash()
}

// PeekItem returns the item held by a leaf node, or nil for an inner node.
func (n *Node) PeekItem() *Item {
	return n.item
}

// LeafType returns the leaf-type tag of a leaf node.
func (n *Node) LeafType() LeafType {
	return n.leafType
}

// SetItem replaces the item (and, if given, the leaf type) of a leaf
// node and recomputes its hash. It reports whether the hash changed,
// which is how update_give_item detects a no-op update.
func (n *Node) SetItem(item *Item, lt LeafType) (bool, error) {
	if item == nil {
		return false, ErrNilItem
	}
	old := n.hash
	n.item = item
	n.leafType = lt
	n.recomputeHash()
	return n.hash != old, nil
}

// Clone returns a value copy of n suitable for copy-on-write: the
// backing arrays (children hashes) are copied by value, and the leaf
// item pointer is shared (items are immutable, so sharing it is safe and
// is exactly what lets a snapshot's leaves stay cheap).
func (n *Node) Clone(seq uint32) *Node {
	cp := *n
	cp.seq = seq
	return &cp
}

// recomputeHash recomputes and caches the node-hash from the node's
// canonical serialization (see store.go for the exact byte layout).
func (n *Node) recomputeHash() {
	switch n.kind {
	case kindInner:
		n.hash = innerNodeHash(&n.children)
	case kindLeaf:
		n.hash = leafNodeHash(n.leafType, n.item)
	default:
		n.hash = [32]byte{}
	}
}

func innerNodeHash(children *[BranchFactor][32]byte) [32]byte {
	buf := make([]byte, 0, BranchFactor*32)
	for i := 0; i < BranchFactor; i++ {
		buf = append(buf, children[i][:]...)
	}
	return crypto.Sha512Half(protocol.HashPrefixInnerNode[:], buf)
}

func leafNodeHash(lt LeafType, item *Item) [32]byte {
	tag := item.Tag()
	payload := item.payloadUnsafe()
	switch lt {
	case LeafAccountState:
		return crypto.Sha512Half(protocol.HashPrefixLeafNode[:], payload, tag[:])
	case LeafTransactionNoMeta:
		return crypto.Sha512Half(protocol.HashPrefixTransactionID[:], payload)
	case LeafTransactionWithMeta:
		return crypto.Sha512Half(protocol.HashPrefixTxNode[:], payload, tag[:])
	default:
		return [32]byte{}
	}
}

func (n *Node) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("Leaf{%s, type=%s, hash=%x}", n.id, n.leafType, n.hash[:4])
	}
	return fmt.Sprintf("Inner{%s, branches=%d, hash=%x}", n.id, n.BranchCount(), n.hash[:4])
}
