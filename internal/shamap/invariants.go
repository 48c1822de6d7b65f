package shamap

import "fmt"

// Invariants checks a single node's self-consistency in isolation: that
// its cached hash still matches its own content, and the shape rules
// that content must obey. isRoot relaxes the "at least one child" rule
// that every other Inner node is held to, since the root is the one
// position in the tree that may be an empty Inner node. A non-root Inner
// node with a single branch is allowed here: insert builds such chains
// above a split, and Map.Invariants checks that they lead to more than
// one leaf.
func (n *Node) Invariants(isRoot bool) error {
	switch n.kind {
	case kindLeaf:
		if n.item == nil {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: leaf has a nil item", n.id)}
		}
		if want := leafNodeHash(n.leafType, n.item); want != n.hash {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: cached hash does not match leaf content", n.id)}
		}
		tag := n.item.Tag()
		for i := uint8(0); i < n.id.Depth; i++ {
			if nibble(tag, i) != nibble(n.id.Prefix, i) {
				return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: item tag diverges from position's prefix at nibble %d", n.id, i)}
			}
		}
		return nil
	case kindInner:
		if want := innerNodeHash(&n.children); want != n.hash {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: cached hash does not match children", n.id)}
		}
		if !isRoot && n.BranchCount() == 0 {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: non-root inner node has no children", n.id)}
		}
		return nil
	default:
		return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: transient-empty node reachable from a live tree", n.id)}
	}
}

// Invariants walks every node reachable from the root, checking each
// one's self-consistency and that every non-empty branch's stored hash
// matches the hash of the child actually found there, and that no
// non-root single-branch Inner node has only one leaf below it (such a
// node is collapsed into that leaf on delete). It's the
// self-check behind the verify command: a corrupt store, a botched CoW,
// or a structural bug in an add/delete path should all show up here.
func (m *Map) Invariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return err
	}
	return m.checkInvariants(m.root, true)
}

func (m *Map) checkInvariants(n *Node, isRoot bool) error {
	if err := n.Invariants(isRoot); err != nil {
		return err
	}
	if !n.IsInner() {
		return nil
	}
	if !isRoot && n.BranchCount() == 1 {
		_, _, ok, err := m.onlyBelow(n)
		if err != nil {
			return err
		}
		if ok {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: single-branch inner node has only one leaf below it and was not collapsed", n.id)}
		}
	}
	for i := uint8(0); i < BranchFactor; i++ {
		if n.IsEmptyBranch(i) {
			continue
		}
		id, err := n.ChildNodeID(i)
		if err != nil {
			return err
		}
		child, err := m.getNode(id, n.ChildHash(i))
		if err != nil {
			return err
		}
		if child.Hash() != n.ChildHash(i) {
			return &LogicError{Op: "invariants", Msg: fmt.Sprintf("%s: child at branch %x hashes to a different value than the parent's record of it", n.id, i)}
		}
		if err := m.checkInvariants(child, false); err != nil {
			return err
		}
	}
	return nil
}
