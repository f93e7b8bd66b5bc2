package navtest

import (
	"sync"
	"time"

	"github.com/vango-dev/navflow/pkg/navigate"
)

// Ending records one NavigationEnded call.
type Ending struct {
	Attempt  navigate.Attempt
	Detector navigate.Detector
}

// Observer records every lifecycle event it receives.
type Observer struct {
	mu       sync.Mutex
	started  []navigate.Attempt
	ended    []Ending
	dropped  []navigate.Op
	failures []error
}

var _ navigate.Observer = (*Observer)(nil)

// NavigationStarted implements navigate.Observer.
func (o *Observer) NavigationStarted(a navigate.Attempt) {
	o.mu.Lock()
	o.started = append(o.started, a)
	o.mu.Unlock()
}

// NavigationEnded implements navigate.Observer.
func (o *Observer) NavigationEnded(a navigate.Attempt, d navigate.Detector, _ time.Duration) {
	o.mu.Lock()
	o.ended = append(o.ended, Ending{Attempt: a, Detector: d})
	o.mu.Unlock()
}

// NavigationDropped implements navigate.Observer.
func (o *Observer) NavigationDropped(op navigate.Op, _ string) {
	o.mu.Lock()
	o.dropped = append(o.dropped, op)
	o.mu.Unlock()
}

// NavigationFailed implements navigate.Observer.
func (o *Observer) NavigationFailed(_ navigate.Attempt, err error) {
	o.mu.Lock()
	o.failures = append(o.failures, err)
	o.mu.Unlock()
}

// Started returns the recorded started attempts.
func (o *Observer) Started() []navigate.Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]navigate.Attempt(nil), o.started...)
}

// Ended returns the recorded endings.
func (o *Observer) Ended() []Ending {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Ending(nil), o.ended...)
}

// Dropped returns the ops of dropped requests.
func (o *Observer) Dropped() []navigate.Op {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]navigate.Op(nil), o.dropped...)
}

// Failures returns the reported router failures.
func (o *Observer) Failures() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.failures...)
}
