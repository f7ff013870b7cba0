package hashindex

import "encoding/binary"

// Codec gives a fixed-size on-disk representation to a key or value
// type, replacing the C++ source's template-instantiation list (int,
// GenericKey<4/8/16/32/64>, ...) with a runtime capability object
// resolved at the call site, per the spec's note on re-expressing
// fixed-size key/value parameterization with generics.
type Codec[T any] interface {
	// Size is the fixed number of bytes T occupies on a page.
	Size() int
	// Encode writes v's bytes into dst, which is exactly Size() long.
	Encode(v T, dst []byte)
	// Decode reads a T back out of src, which is exactly Size() long.
	Decode(src []byte) T
}

// Int32Codec stores int32 keys or values in 4 bytes, little-endian.
type Int32Codec struct{}

func (Int32Codec) Size() int { return 4 }

func (Int32Codec) Encode(v int32, dst []byte) {
	binary.LittleEndian.PutUint32(dst, uint32(v))
}

func (Int32Codec) Decode(src []byte) int32 {
	return int32(binary.LittleEndian.Uint32(src))
}

// Int64Codec stores int64 keys or values in 8 bytes, little-endian.
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }

func (Int64Codec) Encode(v int64, dst []byte) {
	binary.LittleEndian.PutUint64(dst, uint64(v))
}

func (Int64Codec) Decode(src []byte) int64 {
	return int64(binary.LittleEndian.Uint64(src))
}

// FixedBytesCodec stores []byte keys or values (e.g. a record id, or a
// short string key) in exactly N bytes: truncated if longer, zero
// padded if shorter. This is the Go-generics re-expression of the
// source's GenericKey<N> family.
type FixedBytesCodec struct {
	N int
}

func (c FixedBytesCodec) Size() int { return c.N }

func (c FixedBytesCodec) Encode(v []byte, dst []byte) {
	clear(dst)
	n := len(v)
	if n > c.N {
		n = c.N
	}
	copy(dst[:n], v[:n])
}

func (c FixedBytesCodec) Decode(src []byte) []byte {
	out := make([]byte, c.N)
	copy(out, src)
	return out
}
