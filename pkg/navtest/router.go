package navtest

import (
	"context"
	"errors"
	"sync"

	"github.com/vango-dev/navflow/pkg/location"
	"github.com/vango-dev/navflow/pkg/navigate"
)

// ErrNoHistory is returned by Back and Forward at either end of the history.
var ErrNoHistory = errors.New("navtest: no history entry")

// Call records one router invocation.
type Call struct {
	Op   navigate.Op
	Path string
}

// Router is an in-memory navigate.Router. By default it behaves like a
// browser history: Push appends an entry, Replace overwrites the current one,
// Back and Forward move through the entries, and every move is written to
// the attached location.Memory (snapshot first, then the reactive value).
//
// The Func fields override the default behavior for a single operation.
type Router struct {
	PushFunc    func(ctx context.Context, path string) error
	ReplaceFunc func(ctx context.Context, path string) error
	BackFunc    func() error
	ForwardFunc func() error
	RefreshFunc func() error

	loc *location.Memory

	mu        sync.Mutex
	calls     []Call
	redirects map[string]string
	history   []location.Location
	pos       int
	hold      chan struct{}
	lagging   bool
}

var _ navigate.Router = (*Router)(nil)

// NewRouter creates a Router that drives loc. loc may be nil.
func NewRouter(loc *location.Memory) *Router {
	r := &Router{
		loc:       loc,
		redirects: make(map[string]string),
	}
	start := location.Root()
	if loc != nil {
		start = loc.Current()
	}
	r.history = []location.Location{start}
	return r
}

// Redirect makes navigations to from land on to instead.
func (r *Router) Redirect(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects[location.Normalize(from)] = to
}

// LagReactive makes the router update only the location snapshot, as if the
// reactive layer missed the change.
func (r *Router) LagReactive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lagging = true
}

// Hold makes Push and Replace block, after moving the location, until the
// returned release function is called or their context is done.
func (r *Router) Hold() (release func()) {
	ch := make(chan struct{})
	r.mu.Lock()
	r.hold = ch
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.hold == ch {
				r.hold = nil
			}
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns the recorded invocations.
func (r *Router) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many times op was invoked.
func (r *Router) CallCount(op navigate.Op) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Push implements navigate.Router.
func (r *Router) Push(ctx context.Context, path string) error {
	r.record(navigate.OpPush, path)
	if r.PushFunc != nil {
		return r.PushFunc(ctx, path)
	}
	if err := r.move(path, false); err != nil {
		return err
	}
	return r.wait(ctx)
}

// Replace implements navigate.Router.
func (r *Router) Replace(ctx context.Context, path string) error {
	r.record(navigate.OpReplace, path)
	if r.ReplaceFunc != nil {
		return r.ReplaceFunc(ctx, path)
	}
	if err := r.move(path, true); err != nil {
		return err
	}
	return r.wait(ctx)
}

// Back implements navigate.Router.
func (r *Router) Back() error {
	r.record(navigate.OpBack, "")
	if r.BackFunc != nil {
		return r.BackFunc()
	}
	return r.traverse(-1)
}

// Forward implements navigate.Router.
func (r *Router) Forward() error {
	r.record(navigate.OpForward, "")
	if r.ForwardFunc != nil {
		return r.ForwardFunc()
	}
	return r.traverse(1)
}

// Refresh implements navigate.Router. The default does nothing visible.
func (r *Router) Refresh() error {
	r.record(navigate.OpRefresh, "")
	if r.RefreshFunc != nil {
		return r.RefreshFunc()
	}
	return nil
}

func (r *Router) record(op navigate.Op, path string) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Op: op, Path: path})
	r.mu.Unlock()
}

func (r *Router) move(path string, replace bool) error {
	if to, ok := r.redirectFor(path); ok {
		path = to
	}
	loc, err := location.Parse(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if replace {
		r.history[r.pos] = loc
	} else {
		r.history = append(r.history[:r.pos+1], loc)
		r.pos++
	}
	r.mu.Unlock()

	r.publish(loc)
	return nil
}

func (r *Router) traverse(delta int) error {
	r.mu.Lock()
	next := r.pos + delta
	if next < 0 || next >= len(r.history) {
		r.mu.Unlock()
		return ErrNoHistory
	}
	r.pos = next
	loc := r.history[next]
	r.mu.Unlock()

	r.publish(loc)
	return nil
}

func (r *Router) redirectFor(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	to, ok := r.redirects[location.Normalize(path)]
	return to, ok
}

func (r *Router) publish(loc location.Location) {
	if r.loc == nil {
		return
	}
	r.mu.Lock()
	lagging := r.lagging
	r.mu.Unlock()

	if lagging {
		r.loc.SetSnapshot(loc)
		return
	}
	r.loc.Navigate(loc)
}

func (r *Router) wait(ctx context.Context) error {
	r.mu.Lock()
	hold := r.hold
	r.mu.Unlock()
	if hold == nil {
		return nil
	}
	select {
	case <-hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
