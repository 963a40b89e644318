package ml

import (
	"sync/atomic"

	"github.com/sjwhitworth/golearn/ensemble"
)

// State names the model artifact's lifecycle, per spec.md §3.
type State string

const (
	StateAbsent State = "absent"
	StateTrained State = "trained"
	StateLoaded  State = "loaded"
)

// Bundle is the opaque {classifier, scaler} pair that is the active
// model artifact. Immutable once built; Train produces a new Bundle and
// swaps it in atomically rather than mutating one in place.
type Bundle struct {
	Forest  *ensemble.RandomForest
	Scaler  Scaler
	State   State
	Metrics Metrics
}

// Store holds the single process-wide active model artifact behind an
// explicit init/swap/get interface, per spec.md §9's design note: a
// prediction call must observe either the old or the new bundle, never
// a torn state.
type Store struct {
	active atomic.Pointer[Bundle]
}

// NewStore returns a Store with no active model (state absent).
func NewStore() *Store {
	return &Store{}
}

// Swap atomically replaces the active bundle.
func (s *Store) Swap(b *Bundle) {
	s.active.Store(b)
}

// Get returns the currently active bundle, or nil if none has been
// trained or loaded yet.
func (s *Store) Get() *Bundle {
	return s.active.Load()
}
