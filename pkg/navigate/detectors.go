package navigate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/navflow/pkg/location"
)

// attempt is the coordinator's bookkeeping for one admitted navigation.
// Detectors close over an attempt, never over coordinator-wide state, so a
// late signal can only ever try to end the attempt it was armed for.
type attempt struct {
	Attempt

	// target is the normalized target for the landed-elsewhere comparison.
	// Empty for back, forward and refresh, which have no comparable target.
	target string

	// hasOrigin is false when the location was unknown at request time.
	hasOrigin bool

	// reported is set by whoever delivers the attempt's NavigationEnded.
	reported atomic.Bool

	mu       sync.Mutex
	disarms  []func()
	disarmed bool
}

// arm registers a teardown function for one of the attempt's detectors.
// If the attempt was already disarmed, stop runs immediately.
func (a *attempt) arm(stop func()) {
	a.mu.Lock()
	if a.disarmed {
		a.mu.Unlock()
		stop()
		return
	}
	a.disarms = append(a.disarms, stop)
	a.mu.Unlock()
}

// disarm tears down every detector armed for the attempt. Idempotent.
func (a *attempt) disarm() {
	a.mu.Lock()
	if a.disarmed {
		a.mu.Unlock()
		return
	}
	a.disarmed = true
	stops := a.disarms
	a.disarms = nil
	a.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// landed applies the completion comparison to an observed location:
//  1. still navigating, with a comparable target, and loc is not the target:
//     the navigation ended somewhere else (redirect, rewrite);
//  2. otherwise loc differs from the origin: the navigation completed;
//  3. with no recorded origin, any observed change counts.
func (a *attempt) landed(loc location.Location, navigating bool) bool {
	if navigating && a.target != "" && loc.String() != a.target {
		return true
	}
	if a.hasOrigin {
		return !loc.Equal(a.Origin)
	}
	return true
}

// locationDetector ends an attempt when the reactive location changes.
type locationDetector struct {
	c *Coordinator
	a *attempt

	mu   sync.Mutex
	last location.Location
}

func (d *locationDetector) observe(loc location.Location) {
	d.mu.Lock()
	if loc.Equal(d.last) {
		d.mu.Unlock()
		return
	}
	d.last = loc
	d.mu.Unlock()

	if d.a.landed(loc, d.c.store.IsNavigating()) {
		d.c.finish(d.a, DetectorLocation)
	}
}

// platformDetector ends an attempt when a platform event arrives and a
// direct location read shows the navigation is over. It never consults the
// reactive location.
type platformDetector struct {
	c *Coordinator
	a *attempt
}

func (d *platformDetector) observe(ev PlatformEvent) {
	if !ev.Triggers() {
		return
	}
	loc := d.c.loc.Snapshot()
	if loc.IsZero() {
		return
	}
	if d.a.landed(loc, d.c.store.IsNavigating()) {
		d.c.finish(d.a, DetectorPlatform)
	}
}

// armDetectors subscribes the location and platform detectors and the
// settle timeout for a.
func (c *Coordinator) armDetectors(a *attempt) {
	ld := &locationDetector{c: c, a: a, last: a.Origin}
	a.arm(c.loc.Subscribe(ld.observe))

	if c.platform != nil {
		pd := &platformDetector{c: c, a: a}
		a.arm(c.platform.Listen(pd.observe))
	}

	if c.settleTimeout > 0 {
		timeout := c.settleTimeout
		timer := time.AfterFunc(timeout, func() {
			c.finish(a, DetectorTimeout)
		})
		a.arm(func() { timer.Stop() })
	}
}
