package shamap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingFamily wraps a fakeFamily and counts Retrieve calls, so a test
// can assert how many nodes a walk actually touched rather than just what
// it returned.
type countingFamily struct {
	*fakeFamily
	mu       sync.Mutex
	retrieves int
}

func newCountingFamily(backing *fakeFamily) *countingFamily {
	return &countingFamily{fakeFamily: backing}
}

func (f *countingFamily) Retrieve(hash [32]byte) ([]byte, error) {
	f.mu.Lock()
	f.retrieves++
	f.mu.Unlock()
	return f.fakeFamily.Retrieve(hash)
}

func (f *countingFamily) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retrieves
}

func TestDifferenceAddedRemovedAndChanged(t *testing.T) {
	h1, h2, h3 := mustTag(t, h1hex), mustTag(t, h2hex), mustTag(t, h3hex)

	a := NewMap(newFakeFamily())
	require.NoError(t, a.AddGiveItem(NewItem(h1, value(1)), false, false))
	require.NoError(t, a.AddGiveItem(NewItem(h2, value(99)), false, false)) // changed payload
	require.NoError(t, a.AddGiveItem(NewItem(h3, value(3)), false, false)) // only in a

	b := NewMap(newFakeFamily())
	require.NoError(t, b.AddGiveItem(NewItem(h1, value(1)), false, false))
	require.NoError(t, b.AddGiveItem(NewItem(h2, value(2)), false, false))
	require.NoError(t, b.AddGiveItem(NewItem(mustTag(t, h5hex), value(5)), false, false)) // only in b

	added, removed, err := Difference(a, b)
	require.NoError(t, err)

	addedTags := map[[32]byte]bool{}
	for _, it := range added {
		addedTags[it.Tag()] = true
	}
	removedTags := map[[32]byte]bool{}
	for _, it := range removed {
		removedTags[it.Tag()] = true
	}

	require.True(t, addedTags[h3])
	require.True(t, addedTags[h2]) // a's version of the changed item
	require.True(t, removedTags[h2]) // b's version of the changed item
	require.True(t, removedTags[mustTag(t, h5hex)])
	require.False(t, addedTags[h1])
	require.False(t, removedTags[h1])
}

func TestDifferenceIdenticalMapsIsEmpty(t *testing.T) {
	h1 := mustTag(t, h1hex)
	a := NewMap(newFakeFamily())
	require.NoError(t, a.AddGiveItem(NewItem(h1, value(1)), false, false))

	b := NewMap(newFakeFamily())
	require.NoError(t, b.AddGiveItem(NewItem(h1, value(1)), false, false))

	added, removed, err := Difference(a, b)
	require.NoError(t, err)
	require.Empty(t, added)
	require.Empty(t, removed)
}

func TestDifferenceSameMapIsEmptyAndDoesNotDeadlock(t *testing.T) {
	a := NewMap(newFakeFamily())
	require.NoError(t, a.AddGiveItem(NewItem(mustTag(t, h1hex), value(1)), false, false))

	added, removed, err := Difference(a, a)
	require.NoError(t, err)
	require.Empty(t, added)
	require.Empty(t, removed)
}

func TestDifferenceLeafAgainstSubtreeBothSides(t *testing.T) {
	// h3 and h4 share the first nibble (both 0xB), so inserting both
	// forces a split: a's tree has an Inner node where b's has a single
	// leaf, and vice versa for the mirrored case below.
	a := NewMap(newFakeFamily())
	require.NoError(t, a.AddGiveItem(NewItem(mustTag(t, h3hex), value(3)), false, false))
	require.NoError(t, a.AddGiveItem(NewItem(mustTag(t, h4hex), value(4)), false, false))

	b := NewMap(newFakeFamily())
	require.NoError(t, b.AddGiveItem(NewItem(mustTag(t, h3hex), value(3)), false, false))

	added, removed, err := Difference(a, b)
	require.NoError(t, err)

	addedTags := map[[32]byte]bool{}
	for _, it := range added {
		addedTags[it.Tag()] = true
	}
	require.True(t, addedTags[mustTag(t, h4hex)])
	require.Empty(t, removed)

	// Mirrored: b is now the side with the extra item under a shared split.
	added, removed, err = Difference(b, a)
	require.NoError(t, err)
	require.Empty(t, added)
	removedTags := map[[32]byte]bool{}
	for _, it := range removed {
		removedTags[it.Tag()] = true
	}
	require.True(t, removedTags[mustTag(t, h4hex)])
}

// TestDifferencePrunesIdenticalSubtrees is the property this function
// exists for: on two trees that share nearly all their structure, the
// walk must not touch every node in both trees, only the ones on paths
// where a hash actually disagrees.
func TestDifferencePrunesIdenticalSubtrees(t *testing.T) {
	shared := newFakeFamily()

	buildWith := func(extraTag [32]byte) *Map {
		m := NewMap(shared)
		m.ArmDirty()
		for i := 0; i < 40; i++ {
			var tag [32]byte
			tag[0] = byte(i)
			tag[1] = 0x55
			require.NoError(t, m.AddGiveItem(NewItem(tag, value(byte(i))), false, false))
		}
		require.NoError(t, m.AddGiveItem(NewItem(extraTag, value(0xAA)), false, false))
		flushed, err := m.FlushDirty(1<<20, ObjectAccountNode, 1)
		require.NoError(t, err)
		require.Greater(t, flushed, 1)
		return m
	}

	var extraA, extraB [32]byte
	extraA[0], extraA[1] = 0xF0, 0x01
	extraB[0], extraB[1] = 0xF0, 0x02

	a := buildWith(extraA)
	b := buildWith(extraB)

	totalBlobs := shared.count()

	counting := newCountingFamily(shared)
	freshA := NewMapFromHash(counting, a.RootHash())
	freshB := NewMapFromHash(counting, b.RootHash())

	added, removed, err := Difference(freshA, freshB)
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.Len(t, removed, 1)
	require.Equal(t, extraA, added[0].Tag())
	require.Equal(t, extraB, removed[0].Tag())

	// The two trees share 40 of 41 leaves; a linear scan would have to
	// materialize every node in both (on the order of totalBlobs). The
	// hash-short-circuited walk only descends where hashes disagree.
	require.Less(t, counting.calls(), totalBlobs)
}
