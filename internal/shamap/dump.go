package shamap

import (
	"fmt"
	"io"
)

// Dump renders the tree to w as an indented, depth-first listing — a
// debugging aid, not a wire format. Each inner node lists its branch
// count; each leaf lists its tag and leaf type.
func (m *Map) Dump(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveRoot(); err != nil {
		return err
	}
	return m.dumpNode(w, m.root, "")
}

func (m *Map) dumpNode(w io.Writer, n *Node, indent string) error {
	if n.IsLeaf() {
		_, err := fmt.Fprintf(w, "%sleaf %s tag=%x type=%s\n", indent, n.ID(), n.PeekItem().Tag(), n.LeafType())
		return err
	}
	if _, err := fmt.Fprintf(w, "%sinner %s branches=%d\n", indent, n.ID(), n.BranchCount()); err != nil {
		return err
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
		if _, err := fmt.Fprintf(w, "%s  [%x]\n", indent, i); err != nil {
			return err
		}
		if err := m.dumpNode(w, child, indent+"    "); err != nil {
			return err
		}
	}
	return nil
}
