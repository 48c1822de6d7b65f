package shamap

import "fmt"

// Item is a (tag, payload) value record held at a leaf. Items are
// immutable once constructed and are shared by reference between maps:
// a snapshot and its parent can point at the very same *Item without
// either side risking a mutation leaking across the boundary.
type Item struct {
	tag     [32]byte
	payload []byte
}

// NewItem copies payload defensively so the caller's slice can be reused
// or mutated afterward without corrupting the item.
func NewItem(tag [32]byte, payload []byte) *Item {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return &Item{tag: tag, payload: cp}
}

// Tag returns the item's 256-bit key.
func (it *Item) Tag() [32]byte {
	return it.tag
}

// Payload returns a copy of the item's data.
func (it *Item) Payload() []byte {
	cp := make([]byte, len(it.payload))
	copy(cp, it.payload)
	return cp
}

// payloadUnsafe returns the backing slice without copying. Internal
// callers that only read (e.g. hashing, serializing) use this to avoid
// an allocation per node mutation; nothing in this package writes
// through the returned slice.
func (it *Item) payloadUnsafe() []byte {
	return it.payload
}

// Equal reports whether two items have the same tag and payload.
func (it *Item) Equal(other *Item) bool {
	if it == nil || other == nil {
		return it == other
	}
	if it.tag != other.tag || len(it.payload) != len(other.payload) {
		return false
	}
	for i := range it.payload {
		if it.payload[i] != other.payload[i] {
			return false
		}
	}
	return true
}

func (it *Item) String() string {
	if it == nil {
		return "Item(nil)"
	}
	return fmt.Sprintf("Item(tag=%x, size=%d)", it.tag[:4], len(it.payload))
}
