package shamap

import (
	"bytes"
	"errors"
	"sync"

	crypto "github.com/LeJamon/shamapd/internal/crypto/common"
)

// State is the lifecycle stage of a Map (§2 of the design).
type State uint8

const (
	// StateModifying is the ordinary, fully-loaded, mutable state.
	StateModifying State = iota
	// StateSynching means the root hash is known but the root node
	// itself hasn't been fetched yet; resolved lazily on first access.
	StateSynching
	// StateImmutable rejects every mutator with ErrImmutable.
	StateImmutable
)

func (s State) String() string {
	switch s {
	case StateModifying:
		return "modifying"
	case StateSynching:
		return "synching"
	case StateImmutable:
		return "immutable"
	default:
		return "unknown"
	}
}

// Map is a single copy-on-write radix-16 hash tree. The zero value is not
// usable; construct one with NewMap or NewMapFromHash.
//
// Every exported method acquires mu for its entire body. Internal helpers
// (lower-case) assume the caller already holds mu and never lock it
// themselves — this is how the design's re-entrant-mutex requirement is
// satisfied without a hand-rolled reentrant lock: composition happens at
// the Go call level, not at the lock level, so there is never a second
// acquisition to make reentrant in the first place.
type Map struct {
	mu sync.Mutex

	root *Node
	byID byIDCache
	seq  uint32
	state State

	// dirty is nil when disarmed. Its values don't matter — it is a set
	// of NodeIDs that were created or CoW'd since the last arm_dirty,
	// and flush_dirty always re-reads the current by_id entry for each
	// key rather than trusting a stored snapshot, so that a node touched
	// twice in the same generation is flushed once, in its latest form.
	dirty map[NodeID]struct{}

	family Family

	// pendingRootHash is set only by NewMapFromHash: root resolution is
	// deferred to the first operation that actually needs the tree
	// walked, rather than forced synchronously at construction.
	pendingRootHash *[32]byte

	closed bool
}

// NewMap returns a fresh, empty, mutable map backed by family. family may
// be nil for a map that never needs to fault in nodes it doesn't already
// hold (e.g. a purely in-memory scratch map built bottom-up by the
// caller); any reference to a node missing from the working set then
// fails with MissingNodeError instead of consulting a store.
func NewMap(family Family) *Map {
	root := newInnerNode(RootNodeID(), 1)
	byID := newByIDCache()
	byID[root.ID()] = root
	return &Map{root: root, byID: byID, seq: 1, state: StateModifying, family: family}
}

// NewMapFromHash returns a map whose root is known to hash to rootHash
// but has not yet been fetched. The fetch happens lazily, the first time
// an operation actually needs to walk the tree; until then the map
// reports State() == StateSynching.
func NewMapFromHash(family Family, rootHash [32]byte) *Map {
	root := newInnerNode(RootNodeID(), 0)
	byID := newByIDCache()
	byID[root.ID()] = root
	hashCopy := rootHash
	return &Map{
		root:            root,
		byID:            byID,
		seq:             0,
		state:           StateSynching,
		family:          family,
		pendingRootHash: &hashCopy,
	}
}

// State reports the map's current lifecycle stage.
func (m *Map) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RootHash returns the current root node's hash. If the root has not
// been resolved yet (StateSynching), it returns the hash it was
// constructed with, without triggering a fetch.
func (m *Map) RootHash() [32]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingRootHash != nil {
		return *m.pendingRootHash
	}
	return m.root.Hash()
}

// Close marks the map as shutting down: any subsequent fetch_external
// call fails immediately with MissingNodeError rather than consulting
// family, mirroring a node refusing new store I/O while tearing down.
func (m *Map) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// resolveRoot performs NewMapFromHash's deferred fetch, if one is still
// pending. Every exported method that touches the tree calls this first.
func (m *Map) resolveRoot() error {
	if m.pendingRootHash == nil {
		return nil
	}
	hash := *m.pendingRootHash
	n, err := m.fetchExternal(RootNodeID(), hash)
	if err != nil {
		return err
	}
	m.root = n
	m.byID[RootNodeID()] = n
	m.pendingRootHash = nil
	if m.state == StateSynching {
		m.state = StateModifying
	}
	return nil
}

// ---- lookups ----

// PeekItem returns the item stored under tag, or nil if absent.
func (m *Map) PeekItem(tag [32]byte) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return nil, err
	}
	n, err := m.walkTo(tag, false)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return n.PeekItem(), nil
}

// HasItem reports whether tag is present.
func (m *Map) HasItem(tag [32]byte) (bool, error) {
	item, err := m.PeekItem(tag)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// ---- mutators ----

// AddGiveItem inserts item under a tag not already present. isTransaction
// and hasMeta select the leaf's wire framing (§6): account-state leaves
// ignore hasMeta.
func (m *Map) AddGiveItem(item *Item, isTransaction, hasMeta bool) error {
	if item == nil {
		return ErrNilItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateImmutable {
		return ErrImmutable
	}
	if err := m.resolveRoot(); err != nil {
		return err
	}

	tag := item.Tag()
	leafType := leafTypeFor(isTransaction, hasMeta)

	stack, err := m.getStack(tag, true, false)
	if err != nil {
		return err
	}
	if len(stack) == 0 {
		return &LogicError{Op: "add_give_item", Msg: "walk produced an empty stack"}
	}
	n := stack[len(stack)-1]
	stack = stack[:len(stack)-1]

	if n.IsLeaf() && n.PeekItem().Tag() == tag {
		return &LogicError{Op: "add_give_item", Msg: "tag already present"}
	}

	n = m.cow(n)

	var finalHash [32]byte
	if n.IsInner() {
		branch := n.SelectBranch(tag)
		childID, err := n.ChildNodeID(branch)
		if err != nil {
			return err
		}
		newLeaf, err := newLeafNode(childID, m.seq, item, leafType)
		if err != nil {
			return err
		}
		m.adopt(newLeaf)
		n.SetChildHash(branch, newLeaf.Hash())
		finalHash = n.Hash()
	} else {
		other := n.PeekItem()
		otherType := n.LeafType()
		n.MakeInner()

		cur := n
		var b1, b2 uint8
		for {
			b1 = cur.SelectBranch(tag)
			b2 = cur.SelectBranch(other.Tag())
			if b1 != b2 {
				break
			}
			childID, err := cur.ChildNodeID(b1)
			if err != nil {
				return err
			}
			newInner := newInnerNode(childID, m.seq)
			m.adopt(newInner)
			stack = append(stack, cur)
			cur = newInner
		}

		id1, err := cur.ChildNodeID(b1)
		if err != nil {
			return err
		}
		leaf1, err := newLeafNode(id1, m.seq, item, leafType)
		if err != nil {
			return err
		}
		m.adopt(leaf1)
		cur.SetChildHash(b1, leaf1.Hash())

		id2, err := cur.ChildNodeID(b2)
		if err != nil {
			return err
		}
		leaf2, err := newLeafNode(id2, m.seq, other, otherType)
		if err != nil {
			return err
		}
		m.adopt(leaf2)
		cur.SetChildHash(b2, leaf2.Hash())

		finalHash = cur.Hash()
	}

	return m.dirtyUp(stack, tag, finalHash)
}

// UpdateGiveItem replaces the payload of an item already present under
// tag, keeping its position in the tree. isTransaction/hasMeta re-specify
// the leaf framing, since an update can promote a transaction leaf from
// no-meta to with-meta.
func (m *Map) UpdateGiveItem(item *Item, isTransaction, hasMeta bool) error {
	if item == nil {
		return ErrNilItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateImmutable {
		return ErrImmutable
	}
	if err := m.resolveRoot(); err != nil {
		return err
	}

	tag := item.Tag()
	leafType := leafTypeFor(isTransaction, hasMeta)

	stack, err := m.getStack(tag, true, false)
	if err != nil {
		return err
	}
	if len(stack) == 0 {
		return &LogicError{Op: "update_give_item", Msg: "walk produced an empty stack"}
	}
	leaf := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if !leaf.IsLeaf() || leaf.PeekItem().Tag() != tag {
		return &LogicError{Op: "update_give_item", Msg: "tag not present"}
	}

	leaf = m.cow(leaf)
	changed, err := leaf.SetItem(item, leafType)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return m.dirtyUp(stack, tag, leaf.Hash())
}

// DelItem removes the item under tag, collapsing any inner node left
// with a single child. It reports whether tag was present.
func (m *Map) DelItem(tag [32]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateImmutable {
		return false, ErrImmutable
	}
	if err := m.resolveRoot(); err != nil {
		return false, err
	}

	stack, err := m.getStack(tag, true, false)
	if err != nil {
		return false, err
	}
	if len(stack) == 0 || m.root.BranchCount() == 0 {
		return false, &LogicError{Op: "del_item", Msg: "tree is empty"}
	}
	leaf := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if !leaf.IsLeaf() || leaf.PeekItem().Tag() != tag {
		return false, nil
	}

	delete(m.byID, leaf.ID())
	if m.dirty != nil {
		delete(m.dirty, leaf.ID())
	}

	prevHash := [32]byte{}
	for len(stack) > 0 {
		mNode := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		mNode = m.cow(mNode)

		branch := mNode.SelectBranch(tag)
		mNode.SetChildHash(branch, prevHash)

		if mNode.ID().IsRoot() {
			prevHash = mNode.Hash()
			continue
		}

		switch bc := mNode.BranchCount(); {
		case bc == 0:
			delete(m.byID, mNode.ID())
			if m.dirty != nil {
				delete(m.dirty, mNode.ID())
			}
			prevHash = [32]byte{}
		case bc == 1:
			item, lt, ok, err := m.onlyBelow(mNode)
			if err != nil {
				return false, err
			}
			if ok {
				if err := m.eraseChildren(mNode); err != nil {
					return false, err
				}
				leaf, err := newLeafNode(mNode.ID(), m.seq, item, lt)
				if err != nil {
					return false, err
				}
				m.adopt(leaf)
				mNode = leaf
			}
			prevHash = mNode.Hash()
		default:
			prevHash = mNode.Hash()
		}
	}
	return true, nil
}

func leafTypeFor(isTransaction, hasMeta bool) LeafType {
	if !isTransaction {
		return LeafAccountState
	}
	if hasMeta {
		return LeafTransactionWithMeta
	}
	return LeafTransactionNoMeta
}

// ---- snapshot ----

// Snapshot returns a new Map sharing every unmodified node with m.
// Bumping m.seq before copying the working set is what forces the very
// next CoW on either side to clone rather than mutate shared state: the
// two maps never touch each other's nodes again after this point.
func (m *Map) Snapshot(isMutable bool) *Map {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	snap := &Map{
		root:            m.root,
		byID:            m.byID.clone(),
		seq:             m.seq,
		state:           StateModifying,
		family:          m.family,
		pendingRootHash: m.pendingRootHash,
	}
	if !isMutable {
		snap.state = StateImmutable
	}
	return snap
}

// ---- dirty-set lifecycle ----

// ArmDirty begins tracking every node created or CoW'd from this point
// on. Bumping seq here, too, guarantees the very first touch of any
// existing node after arming forces a fresh clone, so that clone's
// NodeID lands in the dirty set even if the node was otherwise untouched
// since the map's construction.
func (m *Map) ArmDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.dirty = make(map[NodeID]struct{})
}

// DisarmDirty stops tracking without flushing whatever remains pending.
func (m *Map) DisarmDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = nil
}

// FlushDirty drains up to maxNodes entries from the dirty set (0 means
// unbounded), serializing and storing each through family. objType and
// seq are stamped on every write this call makes; they describe which
// tree this flush belongs to and at what ledger sequence, not anything
// about the map's own CoW generation counter of the same name.
//
// A node that dropped out of by_id after becoming dirty (deleted or
// folded into a collapse) is simply dropped from the set: nothing
// reachable from the root needs it stored.
func (m *Map) FlushDirty(maxNodes int, objType ObjectType, seq uint32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty == nil || m.family == nil {
		return 0, nil
	}
	flushed := 0
	for id := range m.dirty {
		if maxNodes > 0 && flushed >= maxNodes {
			break
		}
		n, ok := m.byID[id]
		if !ok {
			delete(m.dirty, id)
			continue
		}
		blob := n.SerializeWithPrefix()
		if err := m.family.Store(objType, seq, blob, n.Hash()); err != nil {
			return flushed, err
		}
		delete(m.dirty, id)
		flushed++
	}
	return flushed, nil
}

// ---- internal traversal helpers (mu already held) ----

// getStack walks from the root toward tag, returning every Inner node
// visited plus, depending on includeNonMatchingLeaf, the leaf at the end
// of the walk even if its tag doesn't match. If the walk runs off the
// populated part of the tree (an empty branch), it returns the stack
// collected so far with no error. If partialOk is set, a MissingNodeError
// partway down truncates the stack instead of propagating.
func (m *Map) getStack(tag [32]byte, includeNonMatchingLeaf, partialOk bool) ([]*Node, error) {
	var stack []*Node
	n := m.root
	for n.IsInner() {
		stack = append(stack, n)
		branch := n.SelectBranch(tag)
		h := n.ChildHash(branch)
		if h == ([32]byte{}) {
			return stack, nil
		}
		id, err := n.ChildNodeID(branch)
		if err != nil {
			return nil, err
		}
		child, err := m.getNode(id, h)
		if err != nil {
			var mn *MissingNodeError
			if errors.As(err, &mn) {
				if partialOk {
					return stack, nil
				}
				return nil, mn.withTarget(tag)
			}
			return nil, err
		}
		n = child
	}
	if includeNonMatchingLeaf || n.PeekItem().Tag() == tag {
		stack = append(stack, n)
	}
	return stack, nil
}

// walkTo returns the leaf at tag, or nil if tag isn't present. If modify
// is set, the returned leaf (and nothing above it) has already been
// CoW'd for the current generation.
func (m *Map) walkTo(tag [32]byte, modify bool) (*Node, error) {
	n := m.root
	for n.IsInner() {
		branch := n.SelectBranch(tag)
		if n.IsEmptyBranch(branch) {
			return nil, nil
		}
		id, err := n.ChildNodeID(branch)
		if err != nil {
			return nil, err
		}
		h := n.ChildHash(branch)
		child, err := m.getNode(id, h)
		if err != nil {
			var mn *MissingNodeError
			if errors.As(err, &mn) {
				return nil, mn.withTarget(tag)
			}
			return nil, err
		}
		n = child
	}
	if n.PeekItem().Tag() != tag {
		return nil, nil
	}
	if modify {
		n = m.cow(n)
	}
	return n, nil
}

// getNode returns the node at id, consulting the working set first and
// falling back to fetch_external on a miss.
func (m *Map) getNode(id NodeID, hash [32]byte) (*Node, error) {
	if n, ok := m.byID[id]; ok {
		return n, nil
	}
	n, err := m.fetchExternal(id, hash)
	if err != nil {
		return nil, err
	}
	if _, exists := m.byID[id]; exists {
		return nil, &LogicError{Op: "get_node", Msg: "node id collision on fetch insert"}
	}
	m.byID[id] = n
	return n, nil
}

// fetchExternal materializes the node hash claims to live at id by
// asking family, then verifies the claim: the blob returned must hash to
// exactly the value the caller was looking for. Any failure along this
// path — no family, a shutting-down map, a store error, a nil blob, or a
// hash mismatch — collapses to the same MissingNodeError, per §7: the
// caller can't distinguish "absent" from "corrupt" and shouldn't need to.
func (m *Map) fetchExternal(id NodeID, hash [32]byte) (*Node, error) {
	if m.closed || m.family == nil {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}
	blob, err := m.family.Retrieve(hash)
	if err != nil || blob == nil {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}
	if crypto.Sha512Half(blob) != hash {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}
	n, err := DeserializeFromPrefix(id, m.seq, blob)
	if err != nil {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}
	return n, nil
}

// cow returns a node this generation owns exclusively: n itself if it's
// already stamped with the current seq, otherwise a clone installed in
// by_id (and, if n was the root, in m.root) under the same NodeID.
func (m *Map) cow(n *Node) *Node {
	if n.Seq() == m.seq {
		return n
	}
	clone := n.Clone(m.seq)
	m.byID[clone.ID()] = clone
	if clone.ID().IsRoot() {
		m.root = clone
	}
	if m.dirty != nil {
		m.dirty[clone.ID()] = struct{}{}
	}
	return clone
}

// adopt installs a brand-new node (never CoW'd, just constructed) into
// the working set and, if armed, the dirty set.
func (m *Map) adopt(n *Node) {
	m.byID[n.ID()] = n
	if m.dirty != nil {
		m.dirty[n.ID()] = struct{}{}
	}
}

// dirtyUp walks a stack of ancestor Inner nodes bottom-up, CoW'ing each,
// re-pointing the branch that leads toward target at the hash produced
// one level down, and re-hashing. Used by add_give_item and
// update_give_item, whose every touched Inner node propagates a single
// child hash straight up to the root; del_item does its own walk because
// it also has to detect and collapse single-child branches.
func (m *Map) dirtyUp(stack []*Node, target [32]byte, prevHash [32]byte) error {
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n = m.cow(n)
		branch := n.SelectBranch(target)
		if !n.SetChildHash(branch, prevHash) {
			return &LogicError{Op: "dirty_up", Msg: "set_child_hash reported no change before the stack was drained"}
		}
		prevHash = n.Hash()
	}
	return nil
}

// onlyBelow reports the single item reachable below n, if n has exactly
// one such descendant. Used by del_item to decide whether an inner node
// left with one child should collapse into a leaf in its place.
func (m *Map) onlyBelow(n *Node) (*Item, LeafType, bool, error) {
	cur := n
	for cur.IsInner() {
		var next *Node
		found := false
		for i := uint8(0); i < BranchFactor; i++ {
			if cur.IsEmptyBranch(i) {
				continue
			}
			if found {
				return nil, 0, false, nil
			}
			id, err := cur.ChildNodeID(i)
			if err != nil {
				return nil, 0, false, err
			}
			child, err := m.getNode(id, cur.ChildHash(i))
			if err != nil {
				return nil, 0, false, err
			}
			next = child
			found = true
		}
		if !found {
			return nil, 0, false, &LogicError{Op: "only_below", Msg: "inner node with no branches"}
		}
		cur = next
	}
	return cur.PeekItem(), cur.LeafType(), true, nil
}

// eraseChildren removes every descendant of n from the working set
// (n itself excepted — the caller is about to turn n into a leaf in
// place), following the single chain of non-empty branches that
// onlyBelow just confirmed exists.
func (m *Map) eraseChildren(n *Node) error {
	cur := n
	first := true
	for cur.IsInner() {
		var next *Node
		found := false
		for i := uint8(0); i < BranchFactor; i++ {
			if cur.IsEmptyBranch(i) {
				continue
			}
			if found {
				return &LogicError{Op: "erase_children", Msg: "more than one branch below collapse target"}
			}
			id, err := cur.ChildNodeID(i)
			if err != nil {
				return err
			}
			child, err := m.getNode(id, cur.ChildHash(i))
			if err != nil {
				return err
			}
			next = child
			found = true
		}
		if !found {
			return &LogicError{Op: "erase_children", Msg: "inner node with no branches"}
		}
		if !first {
			delete(m.byID, cur.ID())
			if m.dirty != nil {
				delete(m.dirty, cur.ID())
			}
		}
		first = false
		cur = next
	}
	delete(m.byID, cur.ID())
	if m.dirty != nil {
		delete(m.dirty, cur.ID())
	}
	return nil
}

// firstBelow descends always by the lowest populated branch, returning
// the leftmost leaf reachable below n.
func (m *Map) firstBelow(n *Node) (*Node, error) {
	for {
		if n.IsLeaf() {
			return n, nil
		}
		found := false
		for i := uint8(0); i < BranchFactor; i++ {
			if !n.IsEmptyBranch(i) {
				id, err := n.ChildNodeID(i)
				if err != nil {
					return nil, err
				}
				child, err := m.getNode(id, n.ChildHash(i))
				if err != nil {
					return nil, err
				}
				n = child
				found = true
				break
			}
		}
		if !found {
			return nil, &LogicError{Op: "first_below", Msg: "inner node with no branches"}
		}
	}
}

// lastBelow descends always by the highest populated branch, returning
// the rightmost leaf reachable below n. The branch scan runs from 15
// down to 0 — counting up here would stop at branch 0's side and return
// whatever sits at the lowest, not the highest, populated slot.
func (m *Map) lastBelow(n *Node) (*Node, error) {
	for {
		if n.IsLeaf() {
			return n, nil
		}
		found := false
		for i := BranchFactor - 1; i >= 0; i-- {
			branch := uint8(i)
			if !n.IsEmptyBranch(branch) {
				id, err := n.ChildNodeID(branch)
				if err != nil {
					return nil, err
				}
				child, err := m.getNode(id, n.ChildHash(branch))
				if err != nil {
					return nil, err
				}
				n = child
				found = true
				break
			}
		}
		if !found {
			return nil, &LogicError{Op: "last_below", Msg: "inner node with no branches"}
		}
	}
}

// compareTags orders two tags the same way NodeID.Compare orders
// prefixes: plain lexicographic byte order.
func compareTags(a, b [32]byte) int {
	return bytes.Compare(a[:], b[:])
}
