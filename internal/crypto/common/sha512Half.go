// Package crypto holds the small set of hashing primitives SHAMap and its
// wire framing depend on.
package crypto

import "crypto/sha512"

// Sha512Half returns the first 32 bytes of a SHA-512 hash of the
// concatenation of all the given chunks. Taking multiple chunks lets
// callers hash a prefix, a tag and a payload without first copying them
// into a single buffer.
func Sha512Half(chunks ...[]byte) [32]byte {
	h := sha512.New()
	for _, c := range chunks {
		h.Write(c)
	}
	sum := h.Sum(nil)
	var result [32]byte
	copy(result[:], sum[:32])
	return result
}
