package metrics

import (
	"sync"
	"testing"
)

func TestStoreEmptyBeforePublish(t *testing.T) {
	s := NewStore()
	if s.Current() != nil {
		t.Error("Expected nil before first publish")
	}

	s.Publish(nil)
	if s.Current() != nil {
		t.Error("Publishing nil should be ignored")
	}
}

func TestStoreReturnsLatest(t *testing.T) {
	s := NewStore()
	first := &Snapshot{Timestamp: 1}
	second := &Snapshot{Timestamp: 2}

	s.Publish(first)
	if s.Current() != first {
		t.Error("Expected first snapshot")
	}
	s.Publish(second)
	if s.Current() != second {
		t.Error("Expected second snapshot")
	}
}

func TestStoreConcurrentReadersNeverGoBackwards(t *testing.T) {
	s := NewStore()
	s.Publish(&Snapshot{Timestamp: 0})

	const publishes = 2000
	var wg sync.WaitGroup

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var seen int64
			for i := 0; i < publishes; i++ {
				snap := s.Current()
				if snap == nil {
					t.Error("Reader observed nil after first publish")
					return
				}
				if snap.Timestamp < seen {
					t.Errorf("Reader went backwards: %d after %d", snap.Timestamp, seen)
					return
				}
				seen = snap.Timestamp
			}
		}()
	}

	for i := 1; i <= publishes; i++ {
		s.Publish(&Snapshot{Timestamp: int64(i)})
		if got := s.Current().Timestamp; got != int64(i) {
			t.Fatalf("Expected timestamp %d right after publish, got %d", i, got)
		}
	}
	wg.Wait()
}
