package shamap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewItemCopiesPayloadDefensively(t *testing.T) {
	payload := []byte{1, 2, 3}
	it := NewItem(mustTag(t, h1hex), payload)
	payload[0] = 0xFF
	require.Equal(t, byte(1), it.Payload()[0])
}

func TestItemPayloadReturnsCopy(t *testing.T) {
	it := NewItem(mustTag(t, h1hex), []byte{1, 2, 3})
	got := it.Payload()
	got[0] = 0xFF
	require.Equal(t, byte(1), it.Payload()[0])
}

func TestItemEqual(t *testing.T) {
	a := NewItem(mustTag(t, h1hex), []byte{1, 2, 3})
	b := NewItem(mustTag(t, h1hex), []byte{1, 2, 3})
	c := NewItem(mustTag(t, h2hex), []byte{1, 2, 3})
	d := NewItem(mustTag(t, h1hex), []byte{1, 2, 4})

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
	require.False(t, a.Equal(nil))

	var nilItem *Item
	require.True(t, nilItem.Equal(nil))
}

func TestItemString(t *testing.T) {
	it := NewItem(mustTag(t, h1hex), []byte{1, 2, 3})
	require.Contains(t, it.String(), "Item(tag=")

	var nilItem *Item
	require.Equal(t, "Item(nil)", nilItem.String())
}
