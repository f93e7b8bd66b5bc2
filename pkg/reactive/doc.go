// Package reactive provides the small observable value used by navflow to
// publish navigation state and location changes.
//
// A Signal holds a value and a list of subscribers. Subscribers are plain
// callbacks registered explicitly with Subscribe and removed with the returned
// function, so every observer has a clear mount/unmount lifetime:
//
//	loc := reactive.NewSignal(location.Root())
//	stop := loc.Subscribe(func(l location.Location) {
//	    fmt.Println("now at", l)
//	})
//	defer stop()
//
//	loc.Set(location.MustParse("/dashboard"))
//
// Set only notifies when the value actually changed according to the
// signal's equality function.
package reactive
