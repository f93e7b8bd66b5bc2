package navtest

import (
	"testing"
	"time"

	"github.com/vango-dev/navflow/pkg/location"
	"github.com/vango-dev/navflow/pkg/navigate"
	"github.com/vango-dev/navflow/pkg/navstate"
)

// Harness wires a coordinator to in-memory fakes.
type Harness struct {
	Store       *navstate.Store
	Location    *location.Memory
	Router      *Router
	Platform    *Platform
	Observer    *Observer
	Logs        *LogRecorder
	Coordinator *navigate.Coordinator
}

// New builds a Harness positioned at "/". The settle timeout is disabled
// unless opts set one. The coordinator is closed when the test ends.
func New(t testing.TB, opts ...navigate.Option) *Harness {
	t.Helper()

	h := &Harness{
		Store:    navstate.NewStore(),
		Location: location.NewMemory(location.Root()),
		Platform: NewPlatform(),
		Observer: &Observer{},
	}
	h.Router = NewRouter(h.Location)

	logs, logger := NewLogRecorder()
	h.Logs = logs
	base := []navigate.Option{
		navigate.WithSettleTimeout(0),
		navigate.WithPlatform(h.Platform),
		navigate.WithObserver(h.Observer),
		navigate.WithLogger(logger),
	}

	c, err := navigate.New(h.Store, h.Router, h.Location, append(base, opts...)...)
	if err != nil {
		t.Fatalf("navtest: %v", err)
	}
	h.Coordinator = c
	t.Cleanup(func() { c.Close() })
	return h
}

// WaitNavigating blocks until store reports an in-flight attempt.
func WaitNavigating(t testing.TB, store *navstate.Store) {
	t.Helper()
	waitFor(t, "store to start navigating", store.IsNavigating)
}

// WaitIdle blocks until store is idle.
func WaitIdle(t testing.TB, store *navstate.Store) {
	t.Helper()
	waitFor(t, "store to become idle", func() bool { return !store.IsNavigating() })
}

// ExpectLocation fails the test unless loc's reactive value is want.
func ExpectLocation(t testing.TB, loc location.Capability, want string) {
	t.Helper()
	if got := loc.Current().String(); got != want {
		t.Errorf("location = %q, want %q", got, want)
	}
}

// ExpectIdle fails the test unless store is idle.
func ExpectIdle(t testing.TB, store *navstate.Store) {
	t.Helper()
	if st := store.State(); st != navstate.Idle {
		t.Errorf("expected idle store, got %+v", st)
	}
}

func waitFor(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("navtest: timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
