// Package bufferpool maps logical page ids to pinned, in-memory frames,
// delegating eviction choices to an LRU-K replacer and writeback/fetch
// I/O to a disk scheduler. Grounded on the teacher's
// storage_engine/bufferpool/bufferpool.go — same free-list-then-evict
// shape, same pin/unpin/flush contract — generalized from the teacher's
// plain-LRU access order to LRU-K and wrapped with scoped page guards.
package bufferpool

import (
	"fmt"
	"log"
	"sync"

	"github.com/dustin/go-humanize"

	"storagekit/diskmanager"
	"storagekit/page"
	"storagekit/replacer"
)

// BufferPool owns a fixed number of frames and pins/evicts pages into
// them on behalf of everything built on top of it (the extendible hash
// table's header/directory/bucket pages, in this substrate).
type BufferPool struct {
	mu sync.Mutex

	frames    []*page.Page
	freeList  []int
	pageTable map[page.ID]int
	replacer  *replacer.LRUK
	scheduler *diskmanager.Scheduler

	nextPageID page.ID
}

// New creates a pool of poolSize frames backed by sched, evicting by
// LRU-K with history depth k.
func New(poolSize, k int, sched *diskmanager.Scheduler) *BufferPool {
	bp := &BufferPool{
		frames:    make([]*page.Page, poolSize),
		freeList:  make([]int, poolSize),
		pageTable: make(map[page.ID]int, poolSize),
		replacer:  replacer.New(poolSize, k),
		scheduler: sched,
	}
	for i := 0; i < poolSize; i++ {
		bp.frames[i] = page.New(page.InvalidID)
		bp.freeList[i] = i
	}
	return bp
}

// victimFrame picks a frame to (re)use: the free list first, otherwise
// whatever the replacer evicts. Returns false if neither is available.
// Caller must hold mu.
func (bp *BufferPool) victimFrame() (int, bool) {
	if n := len(bp.freeList); n > 0 {
		idx := bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return idx, true
	}
	fid, ok := bp.replacer.Evict()
	if !ok {
		return 0, false
	}
	idx := int(fid)
	delete(bp.pageTable, bp.frames[idx].ID())
	return idx, true
}

// writeBack synchronously flushes frame's contents if dirty. Caller
// must hold mu; the mutex stays held across this I/O, so every other
// pool operation waits for the writeback to finish.
func (bp *BufferPool) writeBack(frame *page.Page) error {
	if !frame.IsDirty() {
		return nil
	}
	req := diskmanager.NewRequest(frame.ID(), true, frame.Data())
	bp.scheduler.Schedule(req)
	if err := <-req.Done; err != nil {
		return fmt.Errorf("bufferpool: writeback page %d: %w", frame.ID(), err)
	}
	frame.SetDirty(false)
	return nil
}

// NewPage allocates a fresh page id, pins it into a frame, and returns
// the frame. It fails if no frame is free or evictable.
func (bp *BufferPool) NewPage() (*page.Page, bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok := bp.victimFrame()
	if !ok {
		return nil, false
	}
	frame := bp.frames[idx]
	if err := bp.writeBack(frame); err != nil {
		log.Printf("[BufferPool] writeback failed while allocating frame %d: %v", idx, err)
		return nil, false
	}
	frame.ResetMemory()

	id := bp.nextPageID
	bp.nextPageID++

	frame.SetID(id)
	frame.IncPinCount()
	bp.pageTable[id] = idx
	bp.replacer.RecordAccess(replacer.FrameID(idx))
	bp.replacer.SetEvictable(replacer.FrameID(idx), false)

	log.Printf("[BufferPool] NEW  pageID=%d frame=%d", id, idx)
	return frame, true
}

// FetchPage returns page id, pinned, loading it from disk if it is not
// already resident. It fails if the page is not resident and no frame
// is free or evictable.
func (bp *BufferPool) FetchPage(id page.ID) (*page.Page, bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if idx, ok := bp.pageTable[id]; ok {
		frame := bp.frames[idx]
		frame.IncPinCount()
		bp.replacer.RecordAccess(replacer.FrameID(idx))
		bp.replacer.SetEvictable(replacer.FrameID(idx), false)
		return frame, true
	}

	idx, ok := bp.victimFrame()
	if !ok {
		return nil, false
	}
	frame := bp.frames[idx]
	if err := bp.writeBack(frame); err != nil {
		log.Printf("[BufferPool] writeback failed while fetching page %d: %v", id, err)
		return nil, false
	}
	frame.ResetMemory()
	frame.SetID(id)

	req := diskmanager.NewRequest(id, false, frame.Data())
	bp.scheduler.Schedule(req)
	if err := <-req.Done; err != nil {
		log.Printf("[BufferPool] read failed for page %d: %v", id, err)
		return nil, false
	}

	frame.IncPinCount()
	bp.pageTable[id] = idx
	bp.replacer.RecordAccess(replacer.FrameID(idx))
	bp.replacer.SetEvictable(replacer.FrameID(idx), false)

	log.Printf("[BufferPool] MISS pageID=%d frame=%d loaded from disk", id, idx)
	return frame, true
}

// UnpinPage decrements page id's pin count and ORs in isDirty. It
// returns false if the page is not resident or already unpinned.
func (bp *BufferPool) UnpinPage(id page.ID, isDirty bool) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok := bp.pageTable[id]
	if !ok {
		return false
	}
	frame := bp.frames[idx]
	if frame.PinCount() == 0 {
		return false
	}
	zero := frame.DecPinCount()
	frame.MarkDirty(isDirty)
	if zero {
		bp.replacer.SetEvictable(replacer.FrameID(idx), true)
	}
	return true
}

// FlushPage writes page id's bytes to disk unconditionally, then clears
// its dirty flag. Returns false if the page is not resident.
func (bp *BufferPool) FlushPage(id page.ID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushLocked(id)
}

func (bp *BufferPool) flushLocked(id page.ID) bool {
	idx, ok := bp.pageTable[id]
	if !ok {
		return false
	}
	frame := bp.frames[idx]
	req := diskmanager.NewRequest(id, true, frame.Data())
	bp.scheduler.Schedule(req)
	if err := <-req.Done; err != nil {
		log.Printf("[BufferPool] flush failed for page %d: %v", id, err)
		return false
	}
	frame.SetDirty(false)
	return true
}

// FlushAllPages flushes every resident page.
func (bp *BufferPool) FlushAllPages() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	freed := 0
	for id := range bp.pageTable {
		if bp.flushLocked(id) {
			freed++
		}
	}
	log.Printf("[BufferPool] FlushAllPages flushed %d pages (%s)", freed, humanize.Bytes(uint64(freed*page.Size)))
}

// DeletePage evicts page id from the pool entirely, returning its frame
// to the free list. It succeeds trivially if the page is not resident,
// and fails if it is still pinned.
func (bp *BufferPool) DeletePage(id page.ID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok := bp.pageTable[id]
	if !ok {
		return true
	}
	frame := bp.frames[idx]
	if frame.PinCount() > 0 {
		return false
	}

	delete(bp.pageTable, id)
	if err := bp.replacer.Remove(replacer.FrameID(idx)); err != nil {
		log.Printf("[BufferPool] replacer remove failed for frame %d: %v", idx, err)
	}
	frame.ResetMemory()
	bp.freeList = append(bp.freeList, idx)
	return true
}
