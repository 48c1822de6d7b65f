package shamap

import (
	"testing"

	"github.com/stretchr/testify/require"

	crypto "github.com/LeJamon/shamapd/internal/crypto/common"
	"github.com/LeJamon/shamapd/internal/protocol"
)

func TestSerializeDeserializeAccountLeafRoundTrip(t *testing.T) {
	tag := mustTag(t, h1hex)
	item := NewItem(tag, value(1))
	n, err := newLeafNode(NodeID{Depth: 3}, 1, item, LeafAccountState)
	require.NoError(t, err)

	blob := n.SerializeWithPrefix()
	require.Equal(t, protocol.HashPrefixLeafNode[:], blob[:4])

	parsed, err := DeserializeFromPrefix(n.ID(), 1, blob)
	require.NoError(t, err)
	require.Equal(t, n.Hash(), parsed.Hash())
	require.True(t, parsed.PeekItem().Equal(item))
	require.Equal(t, LeafAccountState, parsed.LeafType())
}

func TestSerializeDeserializeTxWithMetaRoundTrip(t *testing.T) {
	tag := mustTag(t, h2hex)
	item := NewItem(tag, value(2))
	n, err := newLeafNode(NodeID{Depth: 3}, 1, item, LeafTransactionWithMeta)
	require.NoError(t, err)

	blob := n.SerializeWithPrefix()
	require.Equal(t, protocol.HashPrefixTxNode[:], blob[:4])

	parsed, err := DeserializeFromPrefix(n.ID(), 1, blob)
	require.NoError(t, err)
	require.Equal(t, n.Hash(), parsed.Hash())
	require.True(t, parsed.PeekItem().Equal(item))
}

func TestSerializeDeserializeTxNoMetaDerivesTagFromPayload(t *testing.T) {
	payload := value(3)
	tag := crypto.Sha512Half(protocol.HashPrefixTransactionID[:], payload)
	item := NewItem(tag, payload)
	n, err := newLeafNode(NodeID{Depth: 3}, 1, item, LeafTransactionNoMeta)
	require.NoError(t, err)

	blob := n.SerializeWithPrefix()
	require.Equal(t, protocol.HashPrefixTransactionID[:], blob[:4])

	parsed, err := DeserializeFromPrefix(n.ID(), 1, blob)
	require.NoError(t, err)
	require.Equal(t, n.Hash(), parsed.Hash())
	require.Equal(t, tag, parsed.PeekItem().Tag())
}

func TestSerializeDeserializeInnerRoundTrip(t *testing.T) {
	n := newInnerNode(RootNodeID(), 1)
	var childHash [32]byte
	childHash[0] = 0x42
	n.SetChildHash(3, childHash)

	blob := n.SerializeWithPrefix()
	require.Equal(t, protocol.HashPrefixInnerNode[:], blob[:4])

	parsed, err := DeserializeFromPrefix(n.ID(), 1, blob)
	require.NoError(t, err)
	require.Equal(t, n.Hash(), parsed.Hash())
	require.Equal(t, childHash, parsed.ChildHash(3))
}

func TestDeserializeFromPrefixRejectsUnknownPrefix(t *testing.T) {
	_, err := DeserializeFromPrefix(RootNodeID(), 1, []byte{0, 0, 0, 0})
	require.Error(t, err)
}

func TestDeserializeFromPrefixRejectsShortBlob(t *testing.T) {
	_, err := DeserializeFromPrefix(RootNodeID(), 1, []byte{1, 2})
	require.Error(t, err)
}
