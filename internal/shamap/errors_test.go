package shamap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingNodeErrorFormatsWithAndWithoutTarget(t *testing.T) {
	base := &MissingNodeError{NodeID: RootNodeID(), Expected: [32]byte{0xAB}}
	require.Contains(t, base.Error(), "missing node")
	require.NotContains(t, base.Error(), "while resolving")

	var target [32]byte
	target[0] = 0xCD
	withTarget := base.withTarget(target)
	require.Contains(t, withTarget.Error(), "while resolving")
	require.Equal(t, target, withTarget.Target)
	require.Equal(t, [32]byte{}, base.Target, "withTarget must not mutate the receiver")
}

func TestIsMissingNodeMatchesWrappedError(t *testing.T) {
	mn := &MissingNodeError{NodeID: RootNodeID()}
	wrapped := errors.New("outer: " + mn.Error())
	require.False(t, IsMissingNode(wrapped))

	joined := errors.Join(errors.New("outer"), mn)
	require.True(t, IsMissingNode(joined))
	require.True(t, IsMissingNode(mn))
	require.False(t, IsMissingNode(errors.New("unrelated")))
}

func TestLogicErrorFormats(t *testing.T) {
	err := &LogicError{Op: "add_give_item", Msg: "duplicate tag"}
	require.Equal(t, "shamap: logic error in add_give_item: duplicate tag", err.Error())
}
