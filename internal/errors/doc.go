// Package errors provides structured, coded errors for navflow.
//
// Errors fall into three categories:
//   - config: wiring mistakes (no shared store, no router). These are returned
//     to the caller and must not be swallowed.
//   - navigation: the router capability failed. These are recovered locally by
//     the coordinator, logged and reported to observers, never returned.
//   - transport / cli: bridge protocol and command line problems.
//
// # Error Codes
//
// Each error has a code (e.g. "N001") that maps to a message, a longer detail
// and, where useful, a suggestion:
//
//	err := errors.New("N001").
//	    WithSuggestion("Create one navstate.Store per session and pass it to navigate.New")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR N001: Navigation store not provided
//	//
//	//   The coordinator was used without the shared navigation state store.
//	//
//	//   Hint: Create one navstate.Store per session and pass it to navigate.New
package errors
