package navigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/location"
	"github.com/vango-dev/navflow/pkg/navstate"
)

// Store targets for operations without a destination path.
const (
	BackTarget    = "__back__"
	ForwardTarget = "__forward__"
	RefreshTarget = "__refresh__"
)

// Coordinator runs navigation attempts against a Router and keeps the shared
// navstate.Store in step with them. Create one per session with New.
type Coordinator struct {
	store    *navstate.Store
	router   Router
	loc      location.Capability
	platform Platform

	logger        *slog.Logger
	observers     []Observer
	settleTimeout time.Duration
	newID         func() string

	// admitting is set while a request passes the drop-on-busy guard, so two
	// concurrent requests cannot both be admitted.
	admitting atomic.Bool

	mu      sync.Mutex
	current *attempt
	closed  bool

	unwatch func()
}

// New creates a Coordinator. store, router and loc are required; a missing
// one is a configuration error (ErrNoStore, ErrNoRouter, ErrNoLocation).
func New(store *navstate.Store, router Router, loc location.Capability, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, navErrors.New("N001")
	}
	if router == nil {
		return nil, navErrors.New("N002")
	}
	if loc == nil {
		return nil, navErrors.New("N003")
	}

	c := &Coordinator{
		store:         store,
		router:        router,
		loc:           loc,
		logger:        slog.Default(),
		settleTimeout: DefaultSettleTimeout,
		newID:         navstate.NewID,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unwatch = store.Subscribe(c.storeChanged)
	return c, nil
}

// Close tears down the detectors of the in-flight attempt and stops
// watching the store. Later requests are dropped. Close does not touch the
// store; an in-flight record stays until someone ends it. Observers see the
// in-flight attempt end with DetectorClosed.
func (c *Coordinator) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	a := c.current
	c.current = nil
	c.mu.Unlock()

	if c.unwatch != nil {
		c.unwatch()
	}
	if a != nil {
		a.disarm()
		c.untracked(a, DetectorClosed)
	}
	return nil
}

// Push navigates to path, pushing a history entry (or replacing one with
// WithReplace). It returns when the router call settles.
//
// A request made while another attempt is in flight is dropped. Router
// failures are logged and never returned; the returned error is non-nil only
// for a misconfigured coordinator.
func (c *Coordinator) Push(ctx context.Context, path string, opts ...NavigateOption) error {
	if err := c.check(); err != nil {
		return err
	}
	o := ApplyNavigateOptions(opts...)
	op := OpPush
	if o.Replace {
		op = OpReplace
	}
	c.navigate(ctx, op, BuildPath(path, o.Params), o.ElementID)
	return nil
}

// Replace navigates to path, replacing the current history entry.
func (c *Coordinator) Replace(ctx context.Context, path string, opts ...NavigateOption) error {
	return c.Push(ctx, path, append(opts[:len(opts):len(opts)], WithReplace())...)
}

// Back navigates back in history. It does not wait for the navigation.
func (c *Coordinator) Back(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	c.traverse(ctx, OpBack, BackTarget, c.router.Back)
	return nil
}

// Forward navigates forward in history. It does not wait for the navigation.
func (c *Coordinator) Forward(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	c.traverse(ctx, OpForward, ForwardTarget, c.router.Forward)
	return nil
}

// Refresh reloads the current location. It does not wait for the reload.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	c.traverse(ctx, OpRefresh, RefreshTarget, c.router.Refresh)
	return nil
}

// IsNavigating reports whether an attempt is in flight.
func (c *Coordinator) IsNavigating() bool {
	if c.check() != nil {
		return false
	}
	return c.store.IsNavigating()
}

// TargetPath returns the in-flight attempt's target, or "".
func (c *Coordinator) TargetPath() string {
	if c.check() != nil {
		return ""
	}
	return c.store.TargetPath()
}

// IsNavigatingTo reports whether the in-flight attempt targets path.
func (c *Coordinator) IsNavigatingTo(path string) bool {
	if c.check() != nil {
		return false
	}
	return c.store.IsNavigatingTo(path)
}

// IsElementLoading reports whether the in-flight attempt was triggered by
// the element with the given id.
func (c *Coordinator) IsElementLoading(id string) bool {
	if c.check() != nil {
		return false
	}
	return c.store.IsElementLoading(id)
}

// NavigationState returns the raw store record.
func (c *Coordinator) NavigationState() navstate.State {
	if c.check() != nil {
		return navstate.Idle
	}
	return c.store.State()
}

// Store returns the shared store.
func (c *Coordinator) Store() *navstate.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// check reports a configuration error for a nil or zero-value coordinator.
func (c *Coordinator) check() error {
	switch {
	case c == nil || c.store == nil:
		return navErrors.New("N001")
	case c.router == nil:
		return navErrors.New("N002")
	case c.loc == nil:
		return navErrors.New("N003")
	}
	return nil
}

// navigate runs a push or replace attempt to completion.
func (c *Coordinator) navigate(ctx context.Context, op Op, path, elementID string) {
	a := c.admit(ctx, op, path, elementID, location.Normalize(path))
	if a == nil {
		return
	}

	call := c.router.Push
	if op == OpReplace {
		call = c.router.Replace
	}
	if err := c.safeCall(func() error { return call(a.Ctx, path) }); err != nil {
		c.fail(a, err)
		return
	}
	c.finish(a, DetectorSettle)
}

// traverse runs a back, forward or refresh attempt. Only the location,
// platform and timeout detectors can end it.
func (c *Coordinator) traverse(ctx context.Context, op Op, target string, call func() error) {
	a := c.admit(ctx, op, target, "", "")
	if a == nil {
		return
	}
	if err := c.safeCall(call); err != nil {
		c.fail(a, err)
	}
}

// admit applies the drop-on-busy guard, records the attempt in the store
// and arms its detectors. It returns nil when the request is dropped.
func (c *Coordinator) admit(ctx context.Context, op Op, target, elementID, comparable string) *attempt {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.admitting.CompareAndSwap(false, true) {
		c.dropped(op, target, "admission in progress")
		return nil
	}
	defer c.admitting.Store(false)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.dropped(op, target, "coordinator closed")
		return nil
	}
	if c.store.IsNavigating() {
		c.dropped(op, target, "navigation in flight")
		return nil
	}

	origin := c.loc.Current()
	a := &attempt{
		Attempt: Attempt{
			ID:        c.newID(),
			Op:        op,
			Target:    target,
			ElementID: elementID,
			Origin:    origin,
			Started:   time.Now(),
			Ctx:       ctx,
		},
		target:    comparable,
		hasOrigin: !origin.IsZero(),
	}

	c.logger.Debug("navigation started",
		"nav_id", a.ID, "op", string(op), "target", target, "element", elementID)
	for _, o := range c.observers {
		o.NavigationStarted(a.Attempt)
	}

	c.store.Start(target, navstate.WithElement(elementID), navstate.WithNavID(a.ID))
	c.armDetectors(a)

	c.mu.Lock()
	prev := c.current
	c.current = a
	c.mu.Unlock()
	if prev != nil {
		prev.disarm()
		c.untracked(prev, DetectorExternal)
	}

	// The record may already have moved on (ended or overwritten by another
	// writer) before the detectors were armed. The router is not called for
	// an attempt the coordinator no longer tracks.
	if c.store.NavID() != a.ID {
		c.release(a)
		c.untracked(a, DetectorExternal)
		return nil
	}
	return a
}

// finish ends a through the store's id gate. Observers hear about a once:
// from the first finish call, or from storeChanged if the record was taken
// away first.
func (c *Coordinator) finish(a *attempt, d Detector) {
	// Claimed before End so the store notification End triggers does not
	// report the attempt as ended externally.
	claimed := a.reported.CompareAndSwap(false, true)
	ended := c.store.End(a.ID)
	c.release(a)
	if !claimed {
		return
	}
	if !ended {
		d = DetectorExternal
	}

	elapsed := time.Since(a.Started)
	if d == DetectorTimeout {
		err := navErrors.New("N022").
			WithField("nav_id", a.ID).
			WithField("op", string(a.Op)).
			WithField("target", a.Target)
		c.logger.Warn("navigation timed out", err.LogAttrs()...)
	} else {
		c.logger.Debug("navigation ended",
			"nav_id", a.ID, "op", string(a.Op), "detector", string(d), "elapsed", elapsed)
	}
	c.notifyEnded(a, d, elapsed)
}

// untracked reports a as ended with d unless an ending was already reported.
func (c *Coordinator) untracked(a *attempt, d Detector) {
	if !a.reported.CompareAndSwap(false, true) {
		return
	}
	elapsed := time.Since(a.Started)
	c.logger.Debug("navigation untracked",
		"nav_id", a.ID, "op", string(a.Op), "detector", string(d), "elapsed", elapsed)
	c.notifyEnded(a, d, elapsed)
}

func (c *Coordinator) notifyEnded(a *attempt, d Detector, elapsed time.Duration) {
	for _, o := range c.observers {
		o.NavigationEnded(a.Attempt, d, elapsed)
	}
}

// fail logs a router failure and ends the attempt.
func (c *Coordinator) fail(a *attempt, err error) {
	code := "N020"
	var p *routerPanic
	if errors.As(err, &p) {
		code = "N021"
	}
	ne := failure(code, a.Attempt, err)
	c.logger.Error("navigation failed", ne.LogAttrs()...)
	for _, o := range c.observers {
		o.NavigationFailed(a.Attempt, ne)
	}
	c.finish(a, DetectorFailure)
}

// release disarms a and forgets it if it is the current attempt.
func (c *Coordinator) release(a *attempt) {
	a.disarm()
	c.mu.Lock()
	if c.current == a {
		c.current = nil
	}
	c.mu.Unlock()
}

// storeChanged disarms the current attempt once the store no longer
// records it, e.g. after an unconditional End from elsewhere.
func (c *Coordinator) storeChanged(st navstate.State) {
	c.mu.Lock()
	a := c.current
	if a == nil || st.NavID == a.ID {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.mu.Unlock()
	a.disarm()
	c.untracked(a, DetectorExternal)
}

func (c *Coordinator) dropped(op Op, target, reason string) {
	c.logger.Debug("navigation dropped", "op", string(op), "target", target, "reason", reason)
	for _, o := range c.observers {
		o.NavigationDropped(op, target)
	}
}

// routerPanic carries a value recovered from a panicking router call.
type routerPanic struct {
	value any
}

func (p *routerPanic) Error() string {
	return fmt.Sprintf("router panic: %v", p.value)
}

// safeCall runs a router call, converting a panic into an error.
func (c *Coordinator) safeCall(call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &routerPanic{value: r}
		}
	}()
	return call()
}
