package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetAbsent(t *testing.T) {
	s := New()
	if v, ok := s.Get("myKey"); ok {
		t.Errorf("want absent, have %q", v)
	}
}

func TestSetGet(t *testing.T) {
	s := New()
	s.Set("myKey", "VarA")
	v, ok := s.Get("myKey")
	if !ok || v != "VarA" {
		t.Errorf("want %q, have %q (ok=%t)", "VarA", v, ok)
	}

	s.Set("myKey", "VarB")
	if v, _ := s.Get("myKey"); v != "VarB" {
		t.Errorf("want %q, have %q", "VarB", v)
	}
}

func TestReplaceCopiesInput(t *testing.T) {
	s := New()
	s.Set("stale", "1")

	in := map[string]string{"a": "1", "b": "2"}
	s.Replace(in)
	in["a"] = "changed"

	if _, ok := s.Get("stale"); ok {
		t.Errorf("replace should drop values missing from the new set")
	}
	if v, _ := s.Get("a"); v != "1" {
		t.Errorf("want %q, have %q", "1", v)
	}
	if want, have := 2, s.Len(); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New()
	s.Set("a", "1")
	snap := s.Snapshot()
	snap["a"] = "2"
	if v, _ := s.Get("a"); v != "1" {
		t.Errorf("snapshot mutation leaked into store: %q", v)
	}
}

func TestRevision(t *testing.T) {
	s := New()
	if s.Revision() != 0 {
		t.Fatalf("want revision 0, have %d", s.Revision())
	}
	s.Set("a", "1")
	s.Replace(map[string]string{"b": "2"})
	s.Delete("b")
	s.Reset()
	if want, have := uint64(4), s.Revision(); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if s.Len() != 0 {
		t.Errorf("want empty store after reset, have %d values", s.Len())
	}
}

func TestConcurrentSetGet(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("k", fmt.Sprintf("v%d-%d", i, j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if v, ok := s.Get("k"); ok && v == "" {
					t.Errorf("observed empty value")
				}
			}
		}()
	}
	wg.Wait()
}
