// Package hashindex implements a disk-backed extendible hash index:
// a header page, up to 2^header_max_depth directory pages, and a
// variable number of bucket pages, all routed through a buffer pool rather than held in memory.
// Grounded on the original source's header/directory/bucket page
// layouts and its DiskExtendibleHashTable routing algorithm.
package hashindex

import (
	"fmt"
	"sync"

	"storagekit/bufferpool"
	"storagekit/page"
)

// Table is a three-level, disk-backed extendible hash index: a header
// page routes a key's top bits to a directory page, which routes its
// low global_depth bits to a bucket page holding the actual entries.
// Grounded on the source's DiskExtendibleHashTable, with the header
// page allocated eagerly at construction and directory/bucket pages
// allocated lazily on first insert.
type Table[K, V any] struct {
	mu sync.RWMutex

	bp *bufferpool.BufferPool

	headerPageID page.ID

	headerMaxDepth    uint32
	directoryMaxDepth uint32
	bucketMaxSize     uint32

	keyCodec Codec[K]
	valCodec Codec[V]
	cmp      Comparator[K]
	hashFn   HashFunc[K]
}

// New allocates a table's header page and returns the table. The
// header starts fully unrouted: every directory slot is InvalidID
// until the first Insert.
func New[K, V any](
	bp *bufferpool.BufferPool,
	kc Codec[K], vc Codec[V],
	cmp Comparator[K], hashFn HashFunc[K],
	headerMaxDepth, directoryMaxDepth, bucketMaxSize uint32,
) (*Table[K, V], error) {
	g, ok := bp.NewPageGuarded()
	if !ok {
		return nil, fmt.Errorf("hashindex: cannot allocate header page: buffer pool exhausted")
	}
	defer g.Drop()
	g.MarkDirty()
	AsHeaderPage(g.Page()).Init(headerMaxDepth)

	return &Table[K, V]{
		bp:                bp,
		headerPageID:      g.PageID(),
		headerMaxDepth:    headerMaxDepth,
		directoryMaxDepth: directoryMaxDepth,
		bucketMaxSize:     bucketMaxSize,
		keyCodec:          kc,
		valCodec:          vc,
		cmp:               cmp,
		hashFn:            hashFn,
	}, nil
}

func (t *Table[K, V]) bucketView(pg *page.Page) *BucketPage[K, V] {
	return AsBucketPage[K, V](pg, t.keyCodec, t.valCodec)
}

// Get looks up key and reports whether it was found. Because Insert
// rejects duplicate keys, at most one value can ever match; this is
// the idiomatic Go shape of the source's GetValue(key, *result), which
// appends into a result vector that is guaranteed to hold 0 or 1
// entries under this table's uniqueness invariant.
func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero V
	hash := t.hashFn(key)

	hg, ok := t.bp.FetchPageRead(t.headerPageID)
	if !ok {
		return zero, false
	}
	dirIdx := AsHeaderPage(hg.Page()).HashToDirectoryIndex(hash)
	dirID := AsHeaderPage(hg.Page()).GetDirectoryPageID(dirIdx)
	hg.Drop()
	if dirID == page.InvalidID {
		return zero, false
	}

	dg, ok := t.bp.FetchPageRead(dirID)
	if !ok {
		return zero, false
	}
	dir := AsDirectoryPage(dg.Page())
	bucketIdx := dir.HashToBucketIndex(hash)
	bucketID := dir.GetBucketPageID(bucketIdx)
	dg.Drop()
	if bucketID == page.InvalidID {
		return zero, false
	}

	bg, ok := t.bp.FetchPageRead(bucketID)
	if !ok {
		return zero, false
	}
	defer bg.Drop()
	return t.bucketView(bg.Page()).Lookup(key, t.cmp)
}

// Insert adds (key, value), growing the directory and splitting
// buckets as needed, and reports whether the insert succeeded. It
// fails if key is already present, if a split is required while the
// directory is already at its max depth (the table is saturated for
// that hash prefix), or if the buffer pool cannot supply a page.
func (t *Table[K, V]) Insert(key K, val V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := t.hashFn(key)

	hg, ok := t.bp.FetchPageWrite(t.headerPageID)
	if !ok {
		return false
	}
	hdr := AsHeaderPage(hg.Page())
	dirIdx := hdr.HashToDirectoryIndex(hash)
	dirID := hdr.GetDirectoryPageID(dirIdx)

	var dg *bufferpool.WritePageGuard
	if dirID == page.InvalidID {
		g, ok := t.bp.NewPageGuarded()
		if !ok {
			hg.Drop()
			return false
		}
		wg := g.UpgradeWrite()
		wg.MarkDirty()
		AsDirectoryPage(wg.Page()).Init(t.directoryMaxDepth)

		hg.MarkDirty()
		hdr.SetDirectoryPageID(dirIdx, wg.PageID())
		dg = wg
	} else {
		wg, ok := t.bp.FetchPageWrite(dirID)
		if !ok {
			hg.Drop()
			return false
		}
		dg = wg
	}
	hg.Drop()
	defer dg.Drop()

	return t.insertIntoDirectory(dg, hash, key, val)
}

// insertIntoDirectory routes (key, value) to a bucket under dg's
// directory, lazily allocating the first bucket, and splitting on
// overflow. Grounded on DiskExtendibleHashTable::InsertToNewDirectory
// / InsertToNewBucket / SplitAndInsert.
func (t *Table[K, V]) insertIntoDirectory(dg *bufferpool.WritePageGuard, hash uint32, key K, val V) bool {
	dir := AsDirectoryPage(dg.Page())
	bucketIdx := dir.HashToBucketIndex(hash)
	bucketID := dir.GetBucketPageID(bucketIdx)

	var bg *bufferpool.WritePageGuard
	if bucketID == page.InvalidID {
		g, ok := t.bp.NewPageGuarded()
		if !ok {
			return false
		}
		wg := g.UpgradeWrite()
		wg.MarkDirty()
		t.bucketView(wg.Page()).Init(t.bucketMaxSize)

		dg.MarkDirty()
		dir.SetBucketPageID(bucketIdx, wg.PageID())
		bg = wg
	} else {
		wg, ok := t.bp.FetchPageWrite(bucketID)
		if !ok {
			return false
		}
		bg = wg
	}

	bucket := t.bucketView(bg.Page())

	if !bucket.IsFull() {
		ok := bucket.Insert(key, val, t.cmp)
		if ok {
			bg.MarkDirty()
		}
		bg.Drop()
		return ok
	}

	if dir.GetLocalDepth(bucketIdx) == dir.GlobalDepth() {
		if !dir.CanExpand() {
			bg.Drop()
			return false
		}
		dir.IncrGlobalDepth()
		dg.MarkDirty()
	}

	newGuard, ok := t.bp.NewPageGuarded()
	if !ok {
		bg.Drop()
		return false
	}
	newBG := newGuard.UpgradeWrite()
	newBG.MarkDirty()
	newBucket := t.bucketView(newBG.Page())
	newBucket.Init(t.bucketMaxSize)
	newBucketID := newBG.PageID()

	localDepth := dir.GetLocalDepth(bucketIdx)
	newMask := uint32(1) << localDepth
	for i := int(bucket.Size()) - 1; i >= 0; i-- {
		k, v := bucket.EntryAt(uint32(i))
		if t.hashFn(k)&newMask != 0 {
			newBucket.Insert(k, v, t.cmp)
			bucket.RemoveAt(uint32(i))
		}
	}
	bg.MarkDirty()

	dirSize := dir.Size()
	start := hash & dir.GetLocalDepthMask(bucketIdx)
	for idx := start; idx < dirSize; idx += newMask {
		dir.IncrLocalDepth(idx)
		if idx&newMask != 0 {
			dir.SetBucketPageID(idx, newBucketID)
		}
	}
	dg.MarkDirty()

	bg.Drop()
	newBG.Drop()

	return t.insertIntoDirectory(dg, hash, key, val)
}

// Remove deletes key, merging its bucket with its split image and
// shrinking the directory as far as possible, and reports whether key
// was present. Grounded on DiskExtendibleHashTable::Remove.
func (t *Table[K, V]) Remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := t.hashFn(key)

	hg, ok := t.bp.FetchPageRead(t.headerPageID)
	if !ok {
		return false
	}
	hdr := AsHeaderPage(hg.Page())
	dirIdx := hdr.HashToDirectoryIndex(hash)
	dirID := hdr.GetDirectoryPageID(dirIdx)
	hg.Drop()
	if dirID == page.InvalidID {
		return false
	}

	dg, ok := t.bp.FetchPageWrite(dirID)
	if !ok {
		return false
	}
	defer dg.Drop()
	dir := AsDirectoryPage(dg.Page())

	bucketIdx := dir.HashToBucketIndex(hash)
	bucketID := dir.GetBucketPageID(bucketIdx)
	if bucketID == page.InvalidID {
		return false
	}

	bg, ok := t.bp.FetchPageWrite(bucketID)
	if !ok {
		return false
	}
	bucket := t.bucketView(bg.Page())

	if !bucket.Remove(key, t.cmp) {
		bg.Drop()
		return false
	}
	bg.MarkDirty()

	for {
		depth := dir.GetLocalDepth(bucketIdx)
		if depth == 0 {
			break
		}
		mergeMask := uint32(1) << (depth - 1)
		mergeIdx := bucketIdx ^ mergeMask
		mergeID := dir.GetBucketPageID(mergeIdx)
		if mergeID == page.InvalidID {
			break
		}

		mg, ok := t.bp.FetchPageRead(mergeID)
		if !ok {
			break
		}
		mergeBucket := t.bucketView(mg.Page())
		canMerge := dir.GetLocalDepth(mergeIdx) == depth && (bucket.IsEmpty() || mergeBucket.IsEmpty())
		if !canMerge {
			mg.Drop()
			break
		}
		if !bucket.MergeBucket(mergeBucket, t.cmp) {
			mg.Drop()
			panic("hashindex: split images overflowed their combined bucket on merge")
		}
		mg.Drop()
		bg.MarkDirty()

		if !t.bp.DeletePage(mergeID) {
			panic("hashindex: could not delete an emptied split-image bucket page")
		}

		dirSize := dir.Size()
		start := hash & (mergeMask - 1)
		for idx := start; idx < dirSize; idx += mergeMask {
			dir.DecrLocalDepth(idx)
			dir.SetBucketPageID(idx, bucketID)
		}
		dg.MarkDirty()
	}
	bg.Drop()

	for dir.CanShrink() {
		dir.DecrGlobalDepth()
		dg.MarkDirty()
	}

	return true
}
