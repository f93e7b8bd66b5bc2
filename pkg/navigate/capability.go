package navigate

import "context"

// Router performs navigations. It is implemented by the embedding
// environment (a browser bridge, a TUI screen stack, a test fake).
//
// Push and Replace block until the navigation settles; an implementation with
// nothing to wait for returns immediately, which counts as settled. Back,
// Forward and Refresh are fire-and-forget: they return once the request is
// issued, and an error means the request could not be issued at all.
type Router interface {
	Push(ctx context.Context, path string) error
	Replace(ctx context.Context, path string) error
	Back() error
	Forward() error
	Refresh() error
}

// PlatformEvent is a native signal that may accompany the end of a
// navigation the router did not report.
type PlatformEvent string

const (
	// EventPopState fires on history traversal.
	EventPopState PlatformEvent = "popstate"

	// EventPageShow fires when a page is restored from the back/forward cache.
	EventPageShow PlatformEvent = "pageshow"

	// EventFocus fires when the window regains focus.
	EventFocus PlatformEvent = "focus"

	// EventVisible fires when the document becomes visible again.
	EventVisible PlatformEvent = "visible"
)

// Triggers reports whether the event should make the platform detector
// re-read the location.
func (e PlatformEvent) Triggers() bool {
	switch e {
	case EventPopState, EventPageShow, EventFocus, EventVisible:
		return true
	}
	return false
}

// Platform delivers native signals.
type Platform interface {
	// Listen registers fn for every platform event. The returned function
	// unregisters it.
	Listen(fn func(PlatformEvent)) (stop func())
}

// PlatformFunc adapts a function to the Platform interface.
type PlatformFunc func(fn func(PlatformEvent)) (stop func())

// Listen implements Platform.
func (f PlatformFunc) Listen(fn func(PlatformEvent)) func() {
	return f(fn)
}
