package navigate

import (
	"context"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/navstate"
)

type coordinatorKey struct{}

// WithCoordinator returns a copy of ctx carrying c and c's store, so that
// handlers deep in a call tree can navigate without the coordinator being
// threaded through every signature.
func WithCoordinator(ctx context.Context, c *Coordinator) context.Context {
	ctx = context.WithValue(ctx, coordinatorKey{}, c)
	if c != nil && c.store != nil {
		ctx = navstate.WithStore(ctx, c.store)
	}
	return ctx
}

// FromContext returns the coordinator carried by ctx. A missing coordinator
// is a configuration error matching ErrNoStore.
func FromContext(ctx context.Context) (*Coordinator, error) {
	if ctx != nil {
		if c, ok := ctx.Value(coordinatorKey{}).(*Coordinator); ok && c != nil {
			return c, c.check()
		}
	}
	return nil, navErrors.New("N001").
		WithDetail("No navigation coordinator is attached to the context.").
		WithSuggestion("Attach the session's coordinator with navigate.WithCoordinator.")
}

// Push navigates with the coordinator carried by ctx.
func Push(ctx context.Context, path string, opts ...NavigateOption) error {
	c, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return c.Push(ctx, path, opts...)
}

// Replace navigates, replacing the history entry, with the coordinator
// carried by ctx.
func Replace(ctx context.Context, path string, opts ...NavigateOption) error {
	c, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return c.Replace(ctx, path, opts...)
}

// Back navigates back with the coordinator carried by ctx.
func Back(ctx context.Context) error {
	c, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return c.Back(ctx)
}

// Forward navigates forward with the coordinator carried by ctx.
func Forward(ctx context.Context) error {
	c, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return c.Forward(ctx)
}

// Refresh reloads with the coordinator carried by ctx.
func Refresh(ctx context.Context) error {
	c, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return c.Refresh(ctx)
}
