package shamap

// Ordered traversal: the tree's in-order walk visits leaves in strict
// ascending tag order, since at every Inner node branch 0 sorts before
// branch 1 and so on, and NodeID.Compare agrees with that ordering.

// PeekFirstItem returns the lowest-tagged item in the map, or nil if empty.
func (m *Map) PeekFirstItem() (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return nil, err
	}
	if m.root.IsInner() && m.root.BranchCount() == 0 {
		return nil, nil
	}
	n, err := m.firstBelow(m.root)
	if err != nil {
		return nil, err
	}
	return n.PeekItem(), nil
}

// PeekLastItem returns the highest-tagged item in the map, or nil if empty.
func (m *Map) PeekLastItem() (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return nil, err
	}
	if m.root.IsInner() && m.root.BranchCount() == 0 {
		return nil, nil
	}
	n, err := m.lastBelow(m.root)
	if err != nil {
		return nil, err
	}
	return n.PeekItem(), nil
}

// PeekNextItem returns the lowest-tagged item strictly greater than tag,
// or nil if tag is the last item (or past the end of the tree).
func (m *Map) PeekNextItem(tag [32]byte) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return nil, err
	}
	stack, err := m.getStack(tag, true, false)
	if err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsLeaf() {
			if compareTags(n.PeekItem().Tag(), tag) > 0 {
				return n.PeekItem(), nil
			}
			continue
		}

		branch := int(n.SelectBranch(tag))
		for i := branch + 1; i < BranchFactor; i++ {
			if n.IsEmptyBranch(uint8(i)) {
				continue
			}
			id, err := n.ChildNodeID(uint8(i))
			if err != nil {
				return nil, err
			}
			child, err := m.getNode(id, n.ChildHash(uint8(i)))
			if err != nil {
				return nil, err
			}
			first, err := m.firstBelow(child)
			if err != nil {
				return nil, err
			}
			return first.PeekItem(), nil
		}
	}
	return nil, nil
}

// PeekPrevItem returns the highest-tagged item strictly less than tag,
// or nil if tag is the first item (or before the start of the tree).
func (m *Map) PeekPrevItem(tag [32]byte) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return nil, err
	}
	stack, err := m.getStack(tag, true, false)
	if err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsLeaf() {
			if compareTags(n.PeekItem().Tag(), tag) < 0 {
				return n.PeekItem(), nil
			}
			continue
		}

		branch := int(n.SelectBranch(tag))
		for i := branch - 1; i >= 0; i-- {
			if n.IsEmptyBranch(uint8(i)) {
				continue
			}
			id, err := n.ChildNodeID(uint8(i))
			if err != nil {
				return nil, err
			}
			child, err := m.getNode(id, n.ChildHash(uint8(i)))
			if err != nil {
				return nil, err
			}
			last, err := m.lastBelow(child)
			if err != nil {
				return nil, err
			}
			return last.PeekItem(), nil
		}
	}
	return nil, nil
}
