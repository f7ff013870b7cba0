package hashindex

import (
	"path/filepath"
	"testing"

	"storagekit/bufferpool"
	"storagekit/diskmanager"
	"storagekit/page"
)

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func hashInt32Identity(v int32) uint32 {
	// A hash function under the test's control: identity, so test
	// scenarios can pick exact directory/bucket routing the way the
	// spec's worked examples do ("keys whose hashes are 0, 1, 2, 3").
	return uint32(v)
}

func newTestTable(t *testing.T, headerMaxDepth, dirMaxDepth, bucketMaxSize uint32) (*Table[int32, int32], *bufferpool.BufferPool) {
	t.Helper()
	mgr, err := diskmanager.Open(filepath.Join(t.TempDir(), "hash.db"))
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	sched := diskmanager.NewScheduler(mgr)
	t.Cleanup(func() {
		sched.Stop()
		mgr.Close()
	})
	bp := bufferpool.New(64, 2, sched)

	tbl, err := New[int32, int32](bp, Int32Codec{}, Int32Codec{}, cmpInt32, hashInt32Identity, headerMaxDepth, dirMaxDepth, bucketMaxSize)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl, bp
}

// TestE1SplitOnOverflowGrowsGlobalDepth mirrors spec scenario E1:
// bucket_max_size=2, directory_max_depth=9; inserting three keys that
// hash into the same initial bucket forces one split and raises the
// directory's global depth from 0 to 1.
func TestE1SplitOnOverflowGrowsGlobalDepth(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 2)

	for _, k := range []int32{0, 1, 2} {
		if !tbl.Insert(k, k*10) {
			t.Fatalf("Insert(%d) failed", k)
		}
	}

	for _, k := range []int32{0, 1, 2} {
		v, ok := tbl.Get(k)
		if !ok || v != k*10 {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", k, v, ok, k*10)
		}
	}

	dg, ok := tbl.bp.FetchPageRead(tbl.headerDirectoryIDForTest(0))
	if !ok {
		t.Fatal("could not fetch directory page")
	}
	defer dg.Drop()
	dir := AsDirectoryPage(dg.Page())
	if dir.GlobalDepth() != 1 {
		t.Fatalf("GlobalDepth() = %d, want 1", dir.GlobalDepth())
	}
}

// TestE2TwoSplitsReachDepthTwo mirrors spec scenario E2: bucket_max_size=1,
// directory_max_depth=9; inserting keys whose (identity) hashes are
// 0, 1, 2, 3 forces two rounds of splitting and leaves global depth 2.
func TestE2TwoSplitsReachDepthTwo(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 1)

	for _, k := range []int32{0, 1, 2, 3} {
		if !tbl.Insert(k, k) {
			t.Fatalf("Insert(%d) failed", k)
		}
	}
	for _, k := range []int32{0, 1, 2, 3} {
		v, ok := tbl.Get(k)
		if !ok || v != k {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", k, v, ok, k)
		}
	}

	dg, ok := tbl.bp.FetchPageRead(tbl.headerDirectoryIDForTest(0))
	if !ok {
		t.Fatal("could not fetch directory page")
	}
	defer dg.Drop()
	dir := AsDirectoryPage(dg.Page())
	if dir.GlobalDepth() != 2 {
		t.Fatalf("GlobalDepth() = %d, want 2", dir.GlobalDepth())
	}
}

// TestE3RemoveShrinksBackToZero mirrors spec scenario E3: after E2's
// inserts, removing every key merges buckets back down and shrinks the
// directory's global depth back to 0.
func TestE3RemoveShrinksBackToZero(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 1)

	for _, k := range []int32{0, 1, 2, 3} {
		if !tbl.Insert(k, k) {
			t.Fatalf("Insert(%d) failed", k)
		}
	}
	for _, k := range []int32{0, 1, 2, 3} {
		if !tbl.Remove(k) {
			t.Fatalf("Remove(%d) failed", k)
		}
	}
	for _, k := range []int32{0, 1, 2, 3} {
		if _, ok := tbl.Get(k); ok {
			t.Fatalf("Get(%d) found a removed key", k)
		}
	}

	dg, ok := tbl.bp.FetchPageRead(tbl.headerDirectoryIDForTest(0))
	if !ok {
		t.Fatal("could not fetch directory page")
	}
	defer dg.Drop()
	dir := AsDirectoryPage(dg.Page())
	if dir.GlobalDepth() != 0 {
		t.Fatalf("GlobalDepth() = %d, want 0", dir.GlobalDepth())
	}
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 4)

	if !tbl.Insert(7, 1) {
		t.Fatal("first Insert(7) failed")
	}
	if tbl.Insert(7, 2) {
		t.Fatal("duplicate Insert(7) unexpectedly succeeded")
	}
	v, ok := tbl.Get(7)
	if !ok || v != 1 {
		t.Fatalf("Get(7) = %d, %v; want 1, true (original value preserved)", v, ok)
	}
}

func TestRemoveUnknownKeyFails(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 4)
	if tbl.Remove(42) {
		t.Fatal("Remove of never-inserted key unexpectedly succeeded")
	}
}

func TestGetBeforeAnyInsertMisses(t *testing.T) {
	tbl, _ := newTestTable(t, 9, 9, 4)
	if _, ok := tbl.Get(0); ok {
		t.Fatal("Get on empty table unexpectedly found a value")
	}
}

// headerDirectoryIDForTest exposes the directory page id routed to by
// the given hash, for assertions against internal directory state.
func (t *Table[K, V]) headerDirectoryIDForTest(hash uint32) page.ID {
	hg, ok := t.bp.FetchPageRead(t.headerPageID)
	if !ok {
		return page.InvalidID
	}
	defer hg.Drop()
	hdr := AsHeaderPage(hg.Page())
	return hdr.GetDirectoryPageID(hdr.HashToDirectoryIndex(hash))
}
