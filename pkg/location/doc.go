// Package location models the combined address (path plus query string) that
// navigation completion is judged against, and the capability through which
// the coordinator observes it.
//
// A Capability exposes the address two ways on purpose:
//   - Current and Subscribe give the reactive value, updated by whatever layer
//     mirrors the browser location into the application.
//   - Snapshot reads the platform directly. It must not depend on the reactive
//     layer, because that layer can lag or miss updates on full reloads and
//     redirects.
//
// Memory is an in-process Capability used by the websocket bridge and tests.
package location
