// Package navtest provides fakes and a harness for testing code built on the
// navigation coordinator.
//
// # Quick Start
//
//	func TestSaveButton(t *testing.T) {
//	    h := navtest.New(t)
//	    h.Router.Redirect("/login", "/dashboard")
//
//	    h.Coordinator.Push(context.Background(), "/login", navigate.WithElement("login"))
//
//	    if h.Store.IsNavigating() {
//	        t.Error("navigation should have finished")
//	    }
//	    navtest.ExpectLocation(t, h.Location, "/dashboard")
//	}
//
// # Holding a navigation open
//
// Router.Hold makes Push and Replace block until released, which is how
// tests observe the in-flight state:
//
//	release := h.Router.Hold()
//	go h.Coordinator.Push(ctx, "/slow")
//	navtest.WaitNavigating(t, h.Store)
//	...
//	release()
package navtest
