package bufferpool

import "storagekit/page"

// BasicPageGuard owns a single pinned page. Dropping it unpins the page
// with whatever dirty flag was observed; it is safe to Drop a guard
// more than once. Go has no destructors, so release is an explicit
// Drop call: either deferred at the acquisition site or made directly
// once the page is no longer needed (as the hash table does when it
// drops header, directory and bucket guards in sequence).
type BasicPageGuard struct {
	bp    *BufferPool
	pg    *page.Page
	dirty bool
}

func newBasicGuard(bp *BufferPool, pg *page.Page) *BasicPageGuard {
	return &BasicPageGuard{bp: bp, pg: pg}
}

// Page returns the underlying page. Callers must not mutate its bytes
// without first taking the appropriate latch (see UpgradeRead /
// UpgradeWrite).
func (g *BasicPageGuard) Page() *page.Page { return g.pg }

// PageID returns the id of the guarded page, or page.InvalidID if the
// guard has already been dropped.
func (g *BasicPageGuard) PageID() page.ID {
	if g.pg == nil {
		return page.InvalidID
	}
	return g.pg.ID()
}

// Data returns the page's bytes for reading.
func (g *BasicPageGuard) Data() []byte { return g.pg.Data() }

// MarkDirty records that this guard observed a mutation, so the dirty
// bit is correctly propagated on unpin even when the page's bytes were
// written through some other view (e.g. a directory/bucket page
// overlay) rather than through DataMut directly.
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// DataMut returns the page's bytes for mutation and marks the guard
// dirty, so the dirty bit is correctly propagated on unpin.
func (g *BasicPageGuard) DataMut() []byte {
	g.MarkDirty()
	return g.pg.Data()
}

// Drop releases the guard's pin, OR-ing in whatever dirty state was
// observed. It is idempotent.
func (g *BasicPageGuard) Drop() {
	if g.pg == nil {
		return
	}
	g.bp.UnpinPage(g.pg.ID(), g.dirty)
	g.pg = nil
	g.bp = nil
	g.dirty = false
}

// UpgradeRead hands off this guard's pin to a new ReadPageGuard, taking
// the page's read latch in the process. The receiver is left empty.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	pg, bp := g.pg, g.bp
	g.pg, g.bp, g.dirty = nil, nil, false
	pg.Latch.RLock()
	return &ReadPageGuard{basic: BasicPageGuard{bp: bp, pg: pg}}
}

// UpgradeWrite hands off this guard's pin to a new WritePageGuard,
// taking the page's write latch in the process. The receiver is left
// empty.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	pg, bp := g.pg, g.bp
	g.pg, g.bp, g.dirty = nil, nil, false
	pg.Latch.Lock()
	return &WritePageGuard{basic: BasicPageGuard{bp: bp, pg: pg}}
}

// ReadPageGuard is a BasicPageGuard plus a held read latch.
type ReadPageGuard struct {
	basic BasicPageGuard
}

func (g *ReadPageGuard) Page() *page.Page  { return g.basic.pg }
func (g *ReadPageGuard) PageID() page.ID   { return g.basic.PageID() }
func (g *ReadPageGuard) Data() []byte      { return g.basic.Data() }

// Drop releases the read latch, then unpins the page. It is idempotent.
func (g *ReadPageGuard) Drop() {
	if g.basic.pg == nil {
		return
	}
	pg := g.basic.pg
	pg.Latch.RUnlock()
	g.basic.Drop()
}

// WritePageGuard is a BasicPageGuard plus a held write latch.
type WritePageGuard struct {
	basic BasicPageGuard
}

func (g *WritePageGuard) Page() *page.Page { return g.basic.pg }
func (g *WritePageGuard) PageID() page.ID  { return g.basic.PageID() }
func (g *WritePageGuard) Data() []byte     { return g.basic.Data() }
func (g *WritePageGuard) DataMut() []byte  { return g.basic.DataMut() }
func (g *WritePageGuard) MarkDirty()       { g.basic.MarkDirty() }

// Drop releases the write latch, then unpins the page. It is
// idempotent.
func (g *WritePageGuard) Drop() {
	if g.basic.pg == nil {
		return
	}
	pg := g.basic.pg
	pg.Latch.Unlock()
	g.basic.Drop()
}

// FetchPageBasic fetches id and wraps it in a BasicPageGuard.
func (bp *BufferPool) FetchPageBasic(id page.ID) (*BasicPageGuard, bool) {
	pg, ok := bp.FetchPage(id)
	if !ok {
		return nil, false
	}
	return newBasicGuard(bp, pg), true
}

// FetchPageRead fetches id, read-latches it, and wraps it in a
// ReadPageGuard.
func (bp *BufferPool) FetchPageRead(id page.ID) (*ReadPageGuard, bool) {
	pg, ok := bp.FetchPage(id)
	if !ok {
		return nil, false
	}
	pg.Latch.RLock()
	return &ReadPageGuard{basic: BasicPageGuard{bp: bp, pg: pg}}, true
}

// FetchPageWrite fetches id, write-latches it, and wraps it in a
// WritePageGuard.
func (bp *BufferPool) FetchPageWrite(id page.ID) (*WritePageGuard, bool) {
	pg, ok := bp.FetchPage(id)
	if !ok {
		return nil, false
	}
	pg.Latch.Lock()
	return &WritePageGuard{basic: BasicPageGuard{bp: bp, pg: pg}}, true
}

// NewPageGuarded allocates a new page and wraps it in a BasicPageGuard.
func (bp *BufferPool) NewPageGuarded() (*BasicPageGuard, bool) {
	pg, ok := bp.NewPage()
	if !ok {
		return nil, false
	}
	return newBasicGuard(bp, pg), true
}
