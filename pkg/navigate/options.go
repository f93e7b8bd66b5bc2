package navigate

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultSettleTimeout bounds how long an attempt may stay in flight without
// any completion signal.
const DefaultSettleTimeout = 15 * time.Second

// NavigateOptions configures a single Push or Replace call.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// ElementID tags the attempt with the UI element that triggered it.
	ElementID string

	// Params are query parameters to add to the path.
	Params map[string]any
}

// NavigateOption is a functional option for Push and Replace.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithElement tags the navigation with a UI element id, for per-element
// loading indicators.
func WithElement(id string) NavigateOption {
	return func(o *NavigateOptions) {
		o.ElementID = id
	}
}

// WithParams adds query parameters to the navigation path.
func WithParams(params map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Params = params
	}
}

// ApplyNavigateOptions applies opts to the default option set.
func ApplyNavigateOptions(opts ...NavigateOption) NavigateOptions {
	var options NavigateOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}
	return options
}

// BuildPath appends params to path as query parameters. Existing query
// parameters are kept; params with the same name replace them. Keys are
// encoded in sorted order so the result is stable.
func BuildPath(path string, params map[string]any) string {
	if len(params) == 0 {
		return path
	}

	base, rawQuery, _ := strings.Cut(path, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, fmt.Sprintf("%v", params[k]))
	}

	return base + "?" + q.Encode()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPlatform enables the platform-event detector.
func WithPlatform(p Platform) Option {
	return func(c *Coordinator) {
		c.platform = p
	}
}

// WithObserver adds an observer for attempt lifecycle events.
// May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithSettleTimeout sets how long an attempt may stay in flight before it is
// ended regardless. Zero or negative disables the timeout.
// Default: DefaultSettleTimeout.
func WithSettleTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.settleTimeout = d
	}
}

// WithIDGenerator replaces navstate.NewID for minting attempt ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}
