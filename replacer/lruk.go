// Package replacer implements the LRU-K eviction policy used by the
// buffer pool to pick a victim frame when it needs to make room for a
// new page. Grounded on the teacher's access-order tracking in
// bplustree/buffer_pool.go and storage_engine/bufferpool/bufferpool.go,
// generalized from plain LRU to the backward-k-distance ordering the
// original source specifies.
package replacer

import "fmt"

// FrameID identifies a slot in the buffer pool.
type FrameID int

type node struct {
	fid       FrameID
	k         int
	history   []uint64 // oldest first, capped at k entries
	evictable bool
}

func (n *node) access(ts uint64) {
	n.history = append(n.history, ts)
	if len(n.history) > n.k {
		n.history = n.history[1:]
	}
}

// less reports whether n is a more preferable eviction victim than
// other: fewer than k accesses ranks first (infinite backward
// distance); among those, the one with the earlier most-recent access
// wins; among nodes with a full k-history, the one with the earlier
// oldest-of-the-last-k access wins.
func (n *node) less(other *node) bool {
	nShort := len(n.history) < n.k
	oShort := len(other.history) < other.k

	switch {
	case nShort && oShort:
		return n.history[len(n.history)-1] < other.history[len(other.history)-1]
	case nShort && !oShort:
		return true
	case !nShort && oShort:
		return false
	default:
		return n.history[0] < other.history[0]
	}
}

// LRUK tracks per-frame access history and selects eviction victims by
// the backward-k-distance rule described in the storage substrate's
// data model.
type LRUK struct {
	k         int
	nodes     map[FrameID]*node
	timestamp uint64
	evictable int
}

// New returns an LRU-K replacer with capacity for numFrames frames and
// history depth k.
func New(numFrames, k int) *LRUK {
	return &LRUK{
		k:     k,
		nodes: make(map[FrameID]*node, numFrames),
	}
}

// RecordAccess notes that frame fid was just touched, creating its
// tracking node on first use.
func (r *LRUK) RecordAccess(fid FrameID) {
	n, ok := r.nodes[fid]
	if !ok {
		n = &node{fid: fid, k: r.k}
		r.nodes[fid] = n
	}
	n.access(r.timestamp)
	r.timestamp++
}

// SetEvictable flips whether fid may be chosen by Evict. It is a
// programmer error to call this for a frame with no recorded access.
func (r *LRUK) SetEvictable(fid FrameID, evictable bool) error {
	n, ok := r.nodes[fid]
	if !ok {
		return fmt.Errorf("replacer: frame %d has no recorded access", fid)
	}
	if n.evictable == evictable {
		return nil
	}
	n.evictable = evictable
	if evictable {
		r.evictable++
	} else {
		r.evictable--
	}
	return nil
}

// Evict removes and returns the evictable frame that is minimal under
// the backward-k-distance ordering, breaking ties by the lowest frame
// id. It reports false if no frame is currently evictable.
func (r *LRUK) Evict() (FrameID, bool) {
	var victim *node
	for _, n := range r.nodes {
		if !n.evictable {
			continue
		}
		if victim == nil || n.less(victim) {
			victim = n
			continue
		}
		if !victim.less(n) && n.fid < victim.fid {
			victim = n
		}
	}
	if victim == nil {
		return 0, false
	}
	delete(r.nodes, victim.fid)
	r.evictable--
	return victim.fid, true
}

// Remove drops an evictable frame's tracking state entirely, e.g.
// because its page was deleted. Removing a frame that is not tracked or
// not currently evictable is a programmer error.
func (r *LRUK) Remove(fid FrameID) error {
	n, ok := r.nodes[fid]
	if !ok {
		return fmt.Errorf("replacer: frame %d has no recorded access, cannot remove", fid)
	}
	if !n.evictable {
		return fmt.Errorf("replacer: frame %d is not evictable, cannot remove", fid)
	}
	delete(r.nodes, fid)
	r.evictable--
	return nil
}

// Size returns the number of frames currently eligible for eviction.
func (r *LRUK) Size() int {
	return r.evictable
}
