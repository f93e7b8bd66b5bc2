package navigate

import (
	"context"
	"time"

	"github.com/vango-dev/navflow/pkg/location"
)

// Op names a coordinator operation.
type Op string

const (
	OpPush    Op = "push"
	OpReplace Op = "replace"
	OpBack    Op = "back"
	OpForward Op = "forward"
	OpRefresh Op = "refresh"
)

// Detector names the mechanism that ended an attempt.
type Detector string

const (
	// DetectorSettle: the router call returned.
	DetectorSettle Detector = "settle"

	// DetectorFailure: the router call failed; the attempt was ended anyway.
	DetectorFailure Detector = "failure"

	// DetectorLocation: the reactive location changed.
	DetectorLocation Detector = "location"

	// DetectorPlatform: a platform event plus a direct location read.
	DetectorPlatform Detector = "platform"

	// DetectorTimeout: nothing else fired within the settle timeout.
	DetectorTimeout Detector = "timeout"

	// DetectorExternal: the record was cleared or overwritten outside the
	// coordinator, e.g. by an unconditional Store.End.
	DetectorExternal Detector = "external"

	// DetectorClosed: the coordinator was closed with the attempt in flight.
	DetectorClosed Detector = "closed"
)

// Attempt describes one admitted navigation.
type Attempt struct {
	// ID is the attempt's navigation id.
	ID string

	// Op is the operation that started the attempt.
	Op Op

	// Target is the path recorded in the store. For back and forward it is a
	// marker, not a real path.
	Target string

	// ElementID is the triggering element, if any.
	ElementID string

	// Origin is the location at the moment the attempt was requested.
	Origin location.Location

	// Started is when the attempt was admitted.
	Started time.Time

	// Ctx is the context passed to the coordinator call.
	Ctx context.Context
}

// Observer receives attempt lifecycle events. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// NavigationStarted is called once per admitted attempt.
	NavigationStarted(a Attempt)

	// NavigationEnded is called exactly once per admitted attempt, with the
	// detector that ended it, or DetectorExternal or DetectorClosed when the
	// coordinator stopped tracking it for another reason.
	NavigationEnded(a Attempt, d Detector, elapsed time.Duration)

	// NavigationDropped is called for a request refused because another
	// attempt was in flight.
	NavigationDropped(op Op, target string)

	// NavigationFailed is called when the router failed. NavigationEnded
	// follows with DetectorFailure if the attempt was still current.
	NavigationFailed(a Attempt, err error)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the methods you need.
type NopObserver struct{}

func (NopObserver) NavigationStarted(Attempt)                        {}
func (NopObserver) NavigationEnded(Attempt, Detector, time.Duration) {}
func (NopObserver) NavigationDropped(Op, string)                     {}
func (NopObserver) NavigationFailed(Attempt, error)                  {}
