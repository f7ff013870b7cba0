package hashindex

import "github.com/cespare/xxhash/v2"

// HashFunc is the caller-supplied 32-bit hash used to route keys
// through the header and directory pages. Equal keys under the table's
// Comparator must hash equal.
type HashFunc[K any] func(key K) uint32

// Comparator is a total order over keys; equal iff it returns 0.
type Comparator[K any] func(a, b K) int

// HashBytes derives a 32-bit hash from a byte slice using xxhash,
// truncated to its low 32 bits. It suits tables built over
// FixedBytesCodec keys; New does not pick a hash on its own, so the
// caller passes this (or another HashFunc) explicitly.
func HashBytes(b []byte) uint32 {
	return uint32(xxhash.Sum64(b))
}

// HashInt32 derives a 32-bit hash for an int32 key by hashing its
// little-endian byte representation.
func HashInt32(v int32) uint32 {
	buf := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return HashBytes(buf[:])
}

// HashInt64 derives a 32-bit hash for an int64 key by hashing its
// little-endian byte representation.
func HashInt64(v int64) uint32 {
	buf := [8]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
	return HashBytes(buf[:])
}
