package diskmanager

import (
	"bytes"
	"path/filepath"
	"testing"

	"storagekit/page"
)

func TestManagerReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	want := make([]byte, page.Size)
	copy(want, []byte("hello, page 3"))

	if err := mgr.WritePage(3, want); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got := make([]byte, page.Size)
	if err := mgr.ReadPage(3, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}

	if !bytes.Equal(want, got) {
		t.Errorf("round trip mismatch: got %q, want %q", got[:20], want[:20])
	}
}

func TestManagerReadUnwrittenPageIsZeroed(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	got := make([]byte, page.Size)
	if err := mgr.ReadPage(7, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("byte %d of unwritten page is %d, want 0", i, b)
		}
	}
}

func TestManagerRejectsWrongSizedBuffer(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	if err := mgr.WritePage(0, make([]byte, 10)); err == nil {
		t.Fatal("expected error writing undersized buffer")
	}
	if err := mgr.ReadPage(0, make([]byte, 10)); err == nil {
		t.Fatal("expected error reading into undersized buffer")
	}
}

func TestSchedulerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	sched := NewScheduler(mgr)
	defer sched.Stop()

	wbuf := make([]byte, page.Size)
	copy(wbuf, []byte("scheduled write"))
	wreq := NewRequest(1, true, wbuf)
	sched.Schedule(wreq)
	if err := <-wreq.Done; err != nil {
		t.Fatalf("write request failed: %v", err)
	}

	rbuf := make([]byte, page.Size)
	rreq := NewRequest(1, false, rbuf)
	sched.Schedule(rreq)
	if err := <-rreq.Done; err != nil {
		t.Fatalf("read request failed: %v", err)
	}

	if !bytes.Equal(rbuf, wbuf) {
		t.Errorf("scheduled round trip mismatch")
	}
}
