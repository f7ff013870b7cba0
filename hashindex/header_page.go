package hashindex

import (
	"encoding/binary"

	"storagekit/page"
)

// headerDirIDsOffset is where the directory-id array starts, right
// after the u32 max_depth field.
const headerDirIDsOffset = 4

// HeaderPage is a byte-exact view over a page's raw bytes implementing
// the top-level radix table: the high bits of a key's hash select one
// of up to 2^Hmax directory page ids. Grounded on the source's
// ExtendibleHTableHeaderPage, re-expressed as a view over
// page.Page.Data() rather than a reinterpreted C struct.
type HeaderPage struct {
	buf []byte
}

// AsHeaderPage views pg's bytes as a HeaderPage.
func AsHeaderPage(pg *page.Page) *HeaderPage {
	return &HeaderPage{buf: pg.Data()}
}

// Init sets the header's max depth. Must be called exactly once, on a
// freshly allocated page.
func (h *HeaderPage) Init(maxDepth uint32) {
	binary.LittleEndian.PutUint32(h.buf[0:4], maxDepth)
	ids := h.buf[headerDirIDsOffset:]
	n := 1 << maxDepth
	invalidID := page.InvalidID
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(ids[i*4:i*4+4], uint32(invalidID))
	}
}

// MaxDepth returns Hmax.
func (h *HeaderPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(h.buf[0:4])
}

// HashToDirectoryIndex maps hash's top MaxDepth bits to a slot in
// [0, 2^MaxDepth).
func (h *HeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	d := h.MaxDepth()
	if d == 0 {
		return 0
	}
	return hash >> (32 - d)
}

// GetDirectoryPageID returns the directory page id at idx, or
// page.InvalidID if none has been allocated yet.
func (h *HeaderPage) GetDirectoryPageID(idx uint32) page.ID {
	off := headerDirIDsOffset + int(idx)*4
	return page.ID(int32(binary.LittleEndian.Uint32(h.buf[off : off+4])))
}

// SetDirectoryPageID records dirID at idx.
func (h *HeaderPage) SetDirectoryPageID(idx uint32, dirID page.ID) {
	off := headerDirIDsOffset + int(idx)*4
	binary.LittleEndian.PutUint32(h.buf[off:off+4], uint32(dirID))
}

// MaxNumDirectoryIDs is the number of slots a header of depth d holds.
func MaxNumDirectoryIDs(maxDepth uint32) int {
	return 1 << maxDepth
}
