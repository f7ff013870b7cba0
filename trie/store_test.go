package trie

import (
	"sync"
	"testing"
)

func TestStorePutThenGetGuard(t *testing.T) {
	s := NewStore()
	PutValue(s, "key", 42)

	g, ok := GetGuard[int](s, "key")
	if !ok || g.Value() != 42 {
		t.Fatalf("GetGuard = %d, %v; want 42, true", g.Value(), ok)
	}
}

func TestStoreRemoveThenGetGuardMisses(t *testing.T) {
	s := NewStore()
	PutValue(s, "key", 42)
	s.Remove("key")

	if _, ok := GetGuard[int](s, "key"); ok {
		t.Fatal("GetGuard found a removed key")
	}
}

// TestE6GuardSurvivesConcurrentWriter mirrors spec scenario E6 and
// invariant 9: a reader holding a value guard observes a consistent
// value even after the writer has issued further puts/removes.
func TestE6GuardSurvivesConcurrentWriter(t *testing.T) {
	s := NewStore()
	PutValue(s, "key", 1)

	g, ok := GetGuard[int](s, "key")
	if !ok {
		t.Fatal("GetGuard(key) failed before any concurrent write")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		PutValue(s, "key", 2)
		s.Remove("key")
		PutValue(s, "key", 3)
	}()
	wg.Wait()

	if v := g.Value(); v != 1 {
		t.Fatalf("stale guard observed %d after writer activity, want the original 1", v)
	}

	g2, ok := GetGuard[int](s, "key")
	if !ok || g2.Value() != 3 {
		t.Fatalf("fresh GetGuard = %d, %v; want 3, true", g2.Value(), ok)
	}
}

func TestStoreConcurrentReadersAndWriterDoNotRace(t *testing.T) {
	s := NewStore()
	PutValue(s, "counter", 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			PutValue(s, "counter", i)
		}
	}()

	for i := 0; i < 100; i++ {
		if g, ok := GetGuard[int](s, "counter"); ok {
			_ = g.Value()
		}
	}
	wg.Wait()

	g, ok := GetGuard[int](s, "counter")
	if !ok || g.Value() != 100 {
		t.Fatalf("final GetGuard = %d, %v; want 100, true", g.Value(), ok)
	}
}
