package hashindex

import (
	"encoding/binary"

	"storagekit/page"
)

const bucketEntriesOffset = 8

// BucketPage is a byte-exact view over a page's raw bytes holding a
// fixed-capacity, unordered array of (key, value) entries. Grounded on
// the source's ExtendibleHTableBucketPage, re-expressed with Go
// generics constrained by Codec instead of C++ template instantiation.
type BucketPage[K, V any] struct {
	buf      []byte
	keyCodec Codec[K]
	valCodec Codec[V]
}

// AsBucketPage views pg's bytes as a BucketPage over the given codecs.
func AsBucketPage[K, V any](pg *page.Page, kc Codec[K], vc Codec[V]) *BucketPage[K, V] {
	return &BucketPage[K, V]{buf: pg.Data(), keyCodec: kc, valCodec: vc}
}

func (b *BucketPage[K, V]) entrySize() int {
	return b.keyCodec.Size() + b.valCodec.Size()
}

func (b *BucketPage[K, V]) entryOffset(idx uint32) int {
	return bucketEntriesOffset + int(idx)*b.entrySize()
}

// Init sets the bucket's max size. Must be called exactly once, on a
// freshly allocated page.
func (b *BucketPage[K, V]) Init(maxSize uint32) {
	binary.LittleEndian.PutUint32(b.buf[0:4], 0)
	binary.LittleEndian.PutUint32(b.buf[4:8], maxSize)
}

func (b *BucketPage[K, V]) Size() uint32 {
	return binary.LittleEndian.Uint32(b.buf[0:4])
}

func (b *BucketPage[K, V]) setSize(n uint32) {
	binary.LittleEndian.PutUint32(b.buf[0:4], n)
}

func (b *BucketPage[K, V]) MaxSize() uint32 {
	return binary.LittleEndian.Uint32(b.buf[4:8])
}

func (b *BucketPage[K, V]) IsFull() bool  { return b.Size() == b.MaxSize() }
func (b *BucketPage[K, V]) IsEmpty() bool { return b.Size() == 0 }

func (b *BucketPage[K, V]) KeyAt(idx uint32) K {
	off := b.entryOffset(idx)
	return b.keyCodec.Decode(b.buf[off : off+b.keyCodec.Size()])
}

func (b *BucketPage[K, V]) ValueAt(idx uint32) V {
	off := b.entryOffset(idx) + b.keyCodec.Size()
	return b.valCodec.Decode(b.buf[off : off+b.valCodec.Size()])
}

func (b *BucketPage[K, V]) EntryAt(idx uint32) (K, V) {
	return b.KeyAt(idx), b.ValueAt(idx)
}

func (b *BucketPage[K, V]) setEntryAt(idx uint32, key K, val V) {
	off := b.entryOffset(idx)
	b.keyCodec.Encode(key, b.buf[off:off+b.keyCodec.Size()])
	b.valCodec.Encode(val, b.buf[off+b.keyCodec.Size():off+b.entrySize()])
}

// Lookup scans the bucket under cmp and returns the first matching
// entry's value.
func (b *BucketPage[K, V]) Lookup(key K, cmp Comparator[K]) (V, bool) {
	for i := uint32(0); i < b.Size(); i++ {
		if cmp(key, b.KeyAt(i)) == 0 {
			return b.ValueAt(i), true
		}
	}
	var zero V
	return zero, false
}

// Insert appends (key, value) if the bucket is not full and key is not
// already present.
func (b *BucketPage[K, V]) Insert(key K, val V, cmp Comparator[K]) bool {
	if b.IsFull() {
		return false
	}
	for i := uint32(0); i < b.Size(); i++ {
		if cmp(key, b.KeyAt(i)) == 0 {
			return false
		}
	}
	n := b.Size()
	b.setEntryAt(n, key, val)
	b.setSize(n + 1)
	return true
}

// Remove deletes key's entry, if present, by swapping the last entry
// into its slot (order is not preserved).
func (b *BucketPage[K, V]) Remove(key K, cmp Comparator[K]) bool {
	n := b.Size()
	var i uint32
	for i = 0; i < n; i++ {
		if cmp(key, b.KeyAt(i)) == 0 {
			break
		}
	}
	if i == n {
		return false
	}
	b.RemoveAt(i)
	return true
}

// RemoveAt deletes the entry at idx by swapping the last entry into its
// slot. It is a no-op if idx is out of range.
func (b *BucketPage[K, V]) RemoveAt(idx uint32) {
	n := b.Size()
	if idx >= n {
		return
	}
	last := n - 1
	if last > idx {
		k, v := b.EntryAt(last)
		b.setEntryAt(idx, k, v)
	}
	b.setSize(last)
}

// MaxEntriesForPage returns how many (key, value) entries of the given
// codecs fit in one page after the bucket's size/max_size header.
func MaxEntriesForPage[K, V any](kc Codec[K], vc Codec[V]) uint32 {
	return uint32((page.Size - bucketEntriesOffset) / (kc.Size() + vc.Size()))
}
