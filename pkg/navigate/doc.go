// Package navigate coordinates navigation attempts against a router and
// detects when each attempt has finished.
//
// A Coordinator admits at most one attempt at a time. Requests made while an
// attempt is in flight are dropped, not queued, so repeated taps on a slow
// link do nothing. Every admitted attempt is recorded in the shared
// navstate.Store under a fresh id, and three independent detectors race to
// end it:
//
//   - settle: the router call returned (or failed; failures are logged and
//     still end the attempt).
//   - location: the reactive location changed to somewhere other than the
//     target (a redirect) or away from the origin.
//   - platform: a native signal (popstate, pageshow, focus, visible) arrived
//     and a direct, non-reactive location read shows the same.
//
// Each detector ends the attempt through Store.End(id). Whichever runs first
// wins; the rest are no-ops because the id no longer matches. A settle
// timeout acts as a last resort so the UI never stays stuck loading.
//
// Usage:
//
//	store := navstate.NewStore()
//	coord, err := navigate.New(store, router, loc,
//	    navigate.WithPlatform(platform),
//	    navigate.WithLogger(logger),
//	)
//	if err != nil {
//	    return err // wiring mistake
//	}
//	defer coord.Close()
//
//	coord.Push(ctx, "/settings", navigate.WithElement("settings-link"))
//	if coord.IsElementLoading("settings-link") { ... }
//
// Navigation errors are never returned. The only errors callers see are
// configuration errors, matching ErrNoStore, ErrNoRouter or ErrNoLocation.
package navigate
