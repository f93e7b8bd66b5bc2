package navstate

import (
	"context"

	navErrors "github.com/vango-dev/navflow/internal/errors"
)

// ErrNoStore is returned when the shared Store is not available.
var ErrNoStore = navErrors.New("N001")

type storeKey struct{}

// WithStore returns a copy of ctx that carries s.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the Store carried by ctx. A missing or nil Store is a
// configuration error matching ErrNoStore.
func FromContext(ctx context.Context) (*Store, error) {
	if ctx != nil {
		if s, ok := ctx.Value(storeKey{}).(*Store); ok && s != nil {
			return s, nil
		}
	}
	return nil, navErrors.New("N001")
}
