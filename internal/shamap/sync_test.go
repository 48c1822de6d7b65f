package shamap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchFatWalksDownToRequestedDepth(t *testing.T) {
	family := newFakeFamily()
	m := NewMap(family)
	m.ArmDirty()
	tags := []string{h1hex, h2hex, h3hex, h4hex, h5hex}
	for i, h := range tags {
		require.NoError(t, m.AddGiveItem(NewItem(mustTag(t, h), value(byte(i+1))), false, false))
	}
	flushed, err := m.FlushDirty(1<<20, ObjectAccountNode, 1)
	require.NoError(t, err)
	require.Greater(t, flushed, 0)

	root := m.RootHash()
	fat, err := FetchFat(family, RootNodeID(), root, 2)
	require.NoError(t, err)
	require.Equal(t, root, fat.Hash)
	require.NotEmpty(t, fat.Children)
}

func TestFetchFatMissingNode(t *testing.T) {
	family := newFakeFamily()
	var bogus [32]byte
	bogus[0] = 0xFF
	_, err := FetchFat(family, RootNodeID(), bogus, 1)
	require.Error(t, err)
	require.True(t, IsMissingNode(err))
}

func TestFetchFatNilFamily(t *testing.T) {
	_, err := FetchFat(nil, RootNodeID(), [32]byte{}, 1)
	require.Error(t, err)
	require.True(t, IsMissingNode(err))
}
