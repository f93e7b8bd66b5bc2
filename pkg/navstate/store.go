package navstate

import (
	"sync"

	"github.com/vango-dev/navflow/pkg/reactive"
)

// State is a snapshot of the navigation record.
// IsNavigating is true iff NavID and TargetPath are non-empty.
// ElementID may be empty either way.
type State struct {
	IsNavigating bool   `json:"isNavigating"`
	TargetPath   string `json:"targetPath,omitempty"`
	ElementID    string `json:"elementId,omitempty"`
	NavID        string `json:"navId,omitempty"`
}

// Idle is the cleared record.
var Idle = State{}

// Store holds the navigation record. It is safe for concurrent use; Start and
// End are serialized so End is an atomic compare-and-clear.
type Store struct {
	mu    sync.Mutex
	state State

	// published mirrors state for subscribers.
	published *reactive.Signal[State]

	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces NewID as the id source for Start calls that do not
// supply an id.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates an idle Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		published: reactive.NewSignal(Idle),
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartOption configures a single Start call.
type StartOption func(*startOptions)

type startOptions struct {
	elementID string
	navID     string
}

// WithElement tags the attempt with the UI element that triggered it.
func WithElement(id string) StartOption {
	return func(o *startOptions) {
		o.elementID = id
	}
}

// WithNavID uses id instead of generating one.
func WithNavID(id string) StartOption {
	return func(o *startOptions) {
		o.navID = id
	}
}

// Start records a new attempt toward targetPath and returns its id.
// Any previous record is replaced unconditionally.
func (s *Store) Start(targetPath string, opts ...StartOption) string {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if o.navID == "" {
		o.navID = s.newID()
	}
	if targetPath == "" {
		// An empty target would read as Idle.
		targetPath = "/"
	}
	s.state = State{
		IsNavigating: true,
		TargetPath:   targetPath,
		ElementID:    o.elementID,
		NavID:        o.navID,
	}
	s.mu.Unlock()

	s.publish()
	return o.navID
}

// End clears the record.
//
// Called with an id, it clears only if the id equals the stored one; an empty
// id never matches. Called without arguments, it clears unconditionally.
// Reports whether the record went from Navigating to Idle.
func (s *Store) End(navID ...string) bool {
	s.mu.Lock()
	if !s.state.IsNavigating {
		s.mu.Unlock()
		return false
	}
	if len(navID) > 0 && (navID[0] == "" || navID[0] != s.state.NavID) {
		s.mu.Unlock()
		return false
	}
	s.state = Idle
	s.mu.Unlock()

	s.publish()
	return true
}

// State returns a snapshot of the record.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsNavigating reports whether an attempt is in flight.
func (s *Store) IsNavigating() bool {
	return s.State().IsNavigating
}

// TargetPath returns the current attempt's target, or "" when idle.
func (s *Store) TargetPath() string {
	return s.State().TargetPath
}

// NavID returns the current attempt's id, or "" when idle.
func (s *Store) NavID() string {
	return s.State().NavID
}

// IsNavigatingTo reports whether the in-flight attempt targets path.
func (s *Store) IsNavigatingTo(path string) bool {
	st := s.State()
	return st.IsNavigating && st.TargetPath == path
}

// IsElementLoading reports whether the in-flight attempt was tagged with id.
func (s *Store) IsElementLoading(id string) bool {
	st := s.State()
	return st.IsNavigating && st.ElementID == id
}

// Subscribe calls fn with every new state. The returned function unsubscribes.
// Callbacks run on the goroutine that changed the state, after the store lock
// is released, so they may read the Store freely.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.published.Subscribe(fn)
}

// publish copies the authoritative state into the published signal.
// Reading state inside Update keeps the signal from going backwards when two
// writers publish out of order.
func (s *Store) publish() {
	s.published.Update(func(State) State {
		return s.State()
	})
}
