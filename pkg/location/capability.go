package location

import (
	"sync"

	"github.com/vango-dev/navflow/pkg/reactive"
)

// Capability is the location source consumed by the navigation coordinator.
type Capability interface {
	// Current returns the reactive current location.
	Current() Location

	// Subscribe registers fn for every change of the reactive location.
	// The returned function unregisters it.
	Subscribe(fn func(Location)) (unsubscribe func())

	// Snapshot reads the location directly from the platform, bypassing the
	// reactive value.
	Snapshot() Location
}

// Memory is an in-process Capability. The reactive value and the platform
// snapshot are stored separately so callers can model the reactive layer
// lagging behind the real address.
type Memory struct {
	current *reactive.Signal[Location]

	mu       sync.RWMutex
	snapshot Location
}

var _ Capability = (*Memory)(nil)

// NewMemory creates a Memory positioned at initial, for both views.
func NewMemory(initial Location) *Memory {
	return &Memory{
		current:  reactive.NewSignal(initial).WithEquals(Location.Equal),
		snapshot: initial,
	}
}

// Current implements Capability.
func (m *Memory) Current() Location {
	return m.current.Get()
}

// Subscribe implements Capability.
func (m *Memory) Subscribe(fn func(Location)) func() {
	return m.current.Subscribe(fn)
}

// Snapshot implements Capability.
func (m *Memory) Snapshot() Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Set updates only the reactive value. Subscribers are notified when it changed.
func (m *Memory) Set(l Location) {
	m.current.Set(l)
}

// SetSnapshot updates only the platform snapshot. Nobody is notified.
func (m *Memory) SetSnapshot(l Location) {
	m.mu.Lock()
	m.snapshot = l
	m.mu.Unlock()
}

// Navigate moves both views to l: the snapshot first, then the reactive value.
func (m *Memory) Navigate(l Location) {
	m.SetSnapshot(l)
	m.Set(l)
}
