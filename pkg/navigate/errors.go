package navigate

import (
	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/navstate"
)

// Configuration errors. Compare with errors.Is.
var (
	// ErrNoStore: the shared navigation store is missing.
	ErrNoStore = navstate.ErrNoStore

	// ErrNoRouter: no router capability was supplied.
	ErrNoRouter = navErrors.New("N002")

	// ErrNoLocation: no location capability was supplied.
	ErrNoLocation = navErrors.New("N003")
)

// failure builds the NavigationFailure logged when a router call fails.
func failure(code string, a Attempt, err error) *navErrors.NavError {
	return navErrors.New(code).
		Wrap(err).
		WithField("nav_id", a.ID).
		WithField("op", string(a.Op)).
		WithField("target", a.Target)
}
