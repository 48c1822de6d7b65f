package shamap

import (
	"errors"
	"fmt"
)

// MissingNodeError carries the context of a tree fault: the node the
// walker was trying to reach, the hash it expected to find there, and
// (when known) the key the overall operation was trying to resolve.
// It is returned whenever a node is referenced by a non-zero child hash
// but cannot be materialized, either because it is absent from the
// in-memory working set and the backing store, or because the blob the
// store returned does not hash to the expected value.
type MissingNodeError struct {
	NodeID   NodeID
	Expected [32]byte
	Target   [32]byte
}

func (e *MissingNodeError) Error() string {
	if e.Target == ([32]byte{}) {
		return fmt.Sprintf("shamap: missing node %s (expected hash %x)", e.NodeID, e.Expected)
	}
	return fmt.Sprintf("shamap: missing node %s (expected hash %x) while resolving %x", e.NodeID, e.Expected, e.Target)
}

// withTarget returns a copy of the error with Target set, used by walkers
// that catch a bare miss from a helper and re-raise it with the key the
// caller was actually after.
func (e *MissingNodeError) withTarget(target [32]byte) *MissingNodeError {
	cp := *e
	cp.Target = target
	return &cp
}

// LogicError marks an invariant violation: a duplicate insert, an update
// of a key that isn't present, a delete against an empty tree, or
// dirty_up finding a hash that did not change before its stack was
// drained. These are
// treated as fatal for the call that triggered them — the map is not left
// in a torn state, but the caller's assumption about tree contents was
// wrong.
type LogicError struct {
	Op  string
	Msg string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("shamap: logic error in %s: %s", e.Op, e.Msg)
}

// ErrImmutable is returned by any mutator called against a map whose
// state is Immutable.
var ErrImmutable = errors.New("shamap: map is immutable")

var (
	ErrNilItem         = errors.New("shamap: nil item")
	ErrInvalidBranch   = errors.New("shamap: branch index out of range 0..15")
	ErrMaxDepthExceeded = errors.New("shamap: node id exceeds max depth")
	ErrNodeNotFound    = errors.New("shamap: node not present in working set")
)

// IsMissingNode reports whether err is (or wraps) a MissingNodeError.
func IsMissingNode(err error) bool {
	var mn *MissingNodeError
	return errors.As(err, &mn)
}
