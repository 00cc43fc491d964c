package metrics

import "sync/atomic"

// Store holds the latest Snapshot. Publish swaps the whole reference, so
// readers never see a partially built value and never block the writer.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Publish makes snap the current snapshot. Nil is ignored.
func (s *Store) Publish(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
}

// Current returns the latest snapshot, or nil before the first Publish
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}
