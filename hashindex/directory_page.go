package hashindex

import (
	"encoding/binary"

	"storagekit/page"
)

const (
	dirLocalDepthsOffset = 8
)

// DirectoryPage is a byte-exact view over a page's raw bytes
// implementing one extendible-hashing directory: a global depth, and
// up to 2^Dmax (bucket page id, local depth) slots, of which only the
// first 2^global_depth are live. Grounded on the source's
// ExtendibleHTableDirectoryPage.
type DirectoryPage struct {
	buf []byte
}

// AsDirectoryPage views pg's bytes as a DirectoryPage.
func AsDirectoryPage(pg *page.Page) *DirectoryPage {
	return &DirectoryPage{buf: pg.Data()}
}

func (d *DirectoryPage) bucketIDsOffset() int {
	return dirLocalDepthsOffset + (1 << d.MaxDepth())
}

// Init sets the directory's max depth and starts it at global depth 0
// with every slot pointing at no bucket.
func (d *DirectoryPage) Init(maxDepth uint32) {
	binary.LittleEndian.PutUint32(d.buf[0:4], maxDepth)
	binary.LittleEndian.PutUint32(d.buf[4:8], 0)
	n := 1 << maxDepth
	localDepths := d.buf[dirLocalDepthsOffset : dirLocalDepthsOffset+n]
	for i := range localDepths {
		localDepths[i] = 0
	}
	ids := d.buf[d.bucketIDsOffset():]
	invalidID := page.InvalidID
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(ids[i*4:i*4+4], uint32(invalidID))
	}
}

func (d *DirectoryPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(d.buf[0:4])
}

func (d *DirectoryPage) GlobalDepth() uint32 {
	return binary.LittleEndian.Uint32(d.buf[4:8])
}

func (d *DirectoryPage) setGlobalDepth(g uint32) {
	binary.LittleEndian.PutUint32(d.buf[4:8], g)
}

// Size is the number of live slots, 2^global_depth.
func (d *DirectoryPage) Size() uint32 {
	return 1 << d.GlobalDepth()
}

// HashToBucketIndex maps hash's low global_depth bits to a live slot.
func (d *DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	return hash & (d.Size() - 1)
}

func (d *DirectoryPage) GetBucketPageID(idx uint32) page.ID {
	off := d.bucketIDsOffset() + int(idx)*4
	return page.ID(int32(binary.LittleEndian.Uint32(d.buf[off : off+4])))
}

func (d *DirectoryPage) SetBucketPageID(idx uint32, id page.ID) {
	off := d.bucketIDsOffset() + int(idx)*4
	binary.LittleEndian.PutUint32(d.buf[off:off+4], uint32(id))
}

func (d *DirectoryPage) GetLocalDepth(idx uint32) uint32 {
	return uint32(d.buf[dirLocalDepthsOffset+int(idx)])
}

func (d *DirectoryPage) SetLocalDepth(idx uint32, depth uint32) {
	d.buf[dirLocalDepthsOffset+int(idx)] = byte(depth)
}

func (d *DirectoryPage) IncrLocalDepth(idx uint32) {
	d.buf[dirLocalDepthsOffset+int(idx)]++
}

func (d *DirectoryPage) DecrLocalDepth(idx uint32) {
	d.buf[dirLocalDepthsOffset+int(idx)]--
}

// GetLocalDepthMask is the mask of the low bits significant to the
// bucket at idx: (1 << local_depth[idx]) - 1.
func (d *DirectoryPage) GetLocalDepthMask(idx uint32) uint32 {
	return (1 << d.GetLocalDepth(idx)) - 1
}

// CanExpand reports whether the directory may grow past its current
// global depth.
func (d *DirectoryPage) CanExpand() bool {
	return d.GlobalDepth() < d.MaxDepth()
}

// IncrGlobalDepth doubles the directory, logically: every existing
// slot i is copied into slot i + 2^(old global depth), preserving its
// bucket id and local depth.
func (d *DirectoryPage) IncrGlobalDepth() {
	g := d.GlobalDepth()
	d.setGlobalDepth(g + 1)
	msb := uint32(1) << g
	for i := uint32(0); i < msb; i++ {
		d.SetLocalDepth(i+msb, d.GetLocalDepth(i))
		d.SetBucketPageID(i+msb, d.GetBucketPageID(i))
	}
}

// DecrGlobalDepth halves the live directory.
func (d *DirectoryPage) DecrGlobalDepth() {
	d.setGlobalDepth(d.GlobalDepth() - 1)
}

// CanShrink reports whether every live slot's local depth is strictly
// less than the global depth — i.e. no bucket currently needs the top
// bit, so the directory may safely halve.
func (d *DirectoryPage) CanShrink() bool {
	g := d.GlobalDepth()
	for i := uint32(0); i < d.Size(); i++ {
		if d.GetLocalDepth(i) == g {
			return false
		}
	}
	return true
}
