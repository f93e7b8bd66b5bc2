// Package navstate holds the single in-flight navigation record.
//
// The Store is a two-state machine:
//
//	Idle --Start--> Navigating(navID, target, element)
//	Navigating --Start--> Navigating            (new attempt overwrites the record)
//	Navigating --End(matching id | no id)--> Idle
//	Navigating --End(other id)--> Navigating    (no-op)
//	Idle --End(*)--> Idle                       (no-op)
//
// The navigation id is an optimistic-concurrency ticket: whoever started an
// attempt keeps its id, and every completion signal clears the record only
// through End(id). A late signal for an older attempt therefore does nothing.
//
// The Store does not refuse a second Start. Dropping requests while busy is
// the coordinator's job (see package navigate).
//
// One Store is created per session and shared by reference. Handlers that
// receive a context can recover it with FromContext:
//
//	ctx = navstate.WithStore(ctx, store)
//	...
//	store, err := navstate.FromContext(ctx)
package navstate
