package shamap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeIDChildAndBranch(t *testing.T) {
	root := RootNodeID()
	require.True(t, root.IsRoot())

	var key [32]byte
	key[0] = 0xAB

	branch := root.Branch(key)
	require.Equal(t, uint8(0xA), branch)

	child, err := root.Child(branch)
	require.NoError(t, err)
	require.False(t, child.IsRoot())
	require.Equal(t, uint8(1), child.Depth)

	grandchild, err := child.Child(child.Branch(key))
	require.NoError(t, err)
	require.Equal(t, uint8(0xB), key[0]&0x0F)
	require.Equal(t, uint8(2), grandchild.Depth)
}

func TestNodeIDChildRejectsOutOfRangeBranch(t *testing.T) {
	_, err := RootNodeID().Child(16)
	require.ErrorIs(t, err, ErrInvalidBranch)
}

func TestNodeIDChildRejectsMaxDepth(t *testing.T) {
	id := NodeID{Depth: MaxDepth}
	_, err := id.Child(0)
	require.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestNodeIDBytesRoundTrip(t *testing.T) {
	id := NodeID{Depth: 5}
	id.Prefix[0] = 0xFF
	parsed, err := NodeIDFromBytes(id.Bytes())
	require.NoError(t, err)
	require.True(t, id.Equal(parsed))
}

func TestNodeIDFromBytesRejectsBadLength(t *testing.T) {
	_, err := NodeIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNodeIDCompareOrdersByDepthThenPrefix(t *testing.T) {
	a := NodeID{Depth: 1}
	b := NodeID{Depth: 2}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))

	c := NodeID{Depth: 1}
	c.Prefix[0] = 0x10
	require.Equal(t, -1, a.Compare(c))
}
