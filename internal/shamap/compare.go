package shamap

// Difference walks a and b together as trees, not as two independent
// linear scans: a stack of (aNode, bNode) pairs starts at the two roots,
// and whenever both sides of a pair are Inner nodes with the same branch
// hash, that branch is never descended into — the subtrees underneath it
// are provably identical. Only branches whose hashes disagree (or whose
// presence disagrees) get pushed back onto the stack or walked directly.
// On two large, mostly-identical snapshots this touches only the nodes
// along the paths that actually changed, not every item in either tree.
//
// added holds every item present in a that isn't in b (or present in both
// but with a different payload); removed holds every item present in b
// but not in a. The natural reading is a ledger-style comparison — b is
// the baseline, a is the candidate — but the function is symmetric in
// what it computes, just not in the names it gives the two sides.
func Difference(a, b *Map) (added, removed []*Item, err error) {
	if a == b {
		return nil, nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := a.resolveRoot(); err != nil {
		return nil, nil, err
	}
	if err := b.resolveRoot(); err != nil {
		return nil, nil, err
	}

	if a.root.Hash() == b.root.Hash() {
		return nil, nil, nil
	}

	type pair struct{ aNode, bNode *Node }
	stack := []pair{{a.root, b.root}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		aNode, bNode := p.aNode, p.bNode

		switch {
		case aNode.IsLeaf() && bNode.IsLeaf():
			added, removed = diffLeafPair(aNode.PeekItem(), bNode.PeekItem(), added, removed)

		case aNode.IsLeaf() && bNode.IsInner():
			removed, added, err = diffLeafAgainstSubtree(b, bNode, aNode.PeekItem(), removed, added)
			if err != nil {
				return nil, nil, err
			}

		case aNode.IsInner() && bNode.IsLeaf():
			added, removed, err = diffLeafAgainstSubtree(a, aNode, bNode.PeekItem(), added, removed)
			if err != nil {
				return nil, nil, err
			}

		default: // both Inner: compare branch-by-branch, short-circuiting on equal hashes
			for i := uint8(0); i < BranchFactor; i++ {
				aEmpty, bEmpty := aNode.IsEmptyBranch(i), bNode.IsEmptyBranch(i)
				switch {
				case aEmpty && bEmpty:
					continue

				case aEmpty:
					child, cerr := fetchChild(b, bNode, i)
					if cerr != nil {
						return nil, nil, cerr
					}
					if removed, err = collectSubtreeItems(b, child, removed); err != nil {
						return nil, nil, err
					}

				case bEmpty:
					child, cerr := fetchChild(a, aNode, i)
					if cerr != nil {
						return nil, nil, cerr
					}
					if added, err = collectSubtreeItems(a, child, added); err != nil {
						return nil, nil, err
					}

				case aNode.ChildHash(i) == bNode.ChildHash(i):
					continue // identical subtree hash: nothing underneath can differ

				default:
					aChild, cerr := fetchChild(a, aNode, i)
					if cerr != nil {
						return nil, nil, cerr
					}
					bChild, cerr := fetchChild(b, bNode, i)
					if cerr != nil {
						return nil, nil, cerr
					}
					stack = append(stack, pair{aChild, bChild})
				}
			}
		}
	}

	return added, removed, nil
}

// fetchChild materializes branch i of n, which belongs to m, going
// through m's working set / backing store exactly as any other node
// reference would.
func fetchChild(m *Map, n *Node, branch uint8) (*Node, error) {
	id, err := n.ChildNodeID(branch)
	if err != nil {
		return nil, err
	}
	return m.getNode(id, n.ChildHash(branch))
}

// diffLeafPair compares two leaves already known to sit at the same
// position in the stack walk: same tag means a possible payload change,
// different tags mean each leaf is unique to its own side.
func diffLeafPair(aItem, bItem *Item, added, removed []*Item) ([]*Item, []*Item) {
	if aItem.Tag() == bItem.Tag() {
		if !aItem.Equal(bItem) {
			added = append(added, aItem)
			removed = append(removed, bItem)
		}
		return added, removed
	}
	added = append(added, aItem)
	removed = append(removed, bItem)
	return added, removed
}

// diffLeafAgainstSubtree handles the case where one side's walk has
// bottomed out at a leaf while the other side still has an Inner node at
// the same position: subtreeRoot (which belongs to m) is walked in full,
// every leaf under it compared against otherItem. own holds items that
// belong to subtreeRoot's side (added if it's a's side, removed if b's),
// counterpart holds items that belong to otherItem's side.
func diffLeafAgainstSubtree(m *Map, subtreeRoot *Node, otherItem *Item, own, counterpart []*Item) ([]*Item, []*Item, error) {
	matched := false
	stack := []*Node{subtreeRoot}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsInner() {
			for i := uint8(0); i < BranchFactor; i++ {
				if n.IsEmptyBranch(i) {
					continue
				}
				child, err := fetchChild(m, n, i)
				if err != nil {
					return own, counterpart, err
				}
				stack = append(stack, child)
			}
			continue
		}

		item := n.PeekItem()
		if item.Tag() != otherItem.Tag() {
			own = append(own, item)
			continue
		}
		matched = true
		if !item.Equal(otherItem) {
			own = append(own, item)
			counterpart = append(counterpart, otherItem)
		}
	}
	if !matched {
		counterpart = append(counterpart, otherItem)
	}
	return own, counterpart, nil
}

// collectSubtreeItems appends every leaf item reachable under n (which
// belongs to m) to items, used when one side's branch is entirely absent
// on the other: everything under it is unconditionally a difference.
func collectSubtreeItems(m *Map, n *Node, items []*Item) ([]*Item, error) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.IsInner() {
			for i := uint8(0); i < BranchFactor; i++ {
				if cur.IsEmptyBranch(i) {
					continue
				}
				child, err := fetchChild(m, cur, i)
				if err != nil {
					return items, err
				}
				stack = append(stack, child)
			}
			continue
		}
		items = append(items, cur.PeekItem())
	}
	return items, nil
}
