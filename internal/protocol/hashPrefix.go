// Package protocol holds the wire-level constants shared by the SHAMap
// node serialization and anything that hashes XRPL-shaped objects.
package protocol

// makeHashPrefix combines three ASCII characters into a 4-byte prefix with the last byte set to zero.
func makeHashPrefix(a, b, c byte) [4]byte {
	return [4]byte{a, b, c, 0}
}

// HashPrefix constants for the hash domains the SHAMap node framing needs.
// These must match the C++ rippled enum values byte-for-byte: changing any
// of them would silently change every SHAMap root hash computed downstream.
var (
	HashPrefixTransactionID = makeHashPrefix('T', 'X', 'N') // transaction ID leaf key derivation
	HashPrefixTxNode        = makeHashPrefix('S', 'N', 'D') // transaction + metadata leaf
	HashPrefixLeafNode      = makeHashPrefix('M', 'L', 'N') // account state leaf
	HashPrefixInnerNode     = makeHashPrefix('M', 'I', 'N') // inner node
)
