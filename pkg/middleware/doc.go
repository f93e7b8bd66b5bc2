// Package middleware provides observability for navigation coordinators.
//
// Both types in this package implement navigate.Observer and are attached
// with navigate.WithObserver.
//
// # Prometheus Metrics
//
// The Prometheus observer counts admitted, ended, dropped and failed
// attempts, and records how long attempts stay in flight:
//
//	m := middleware.Prometheus(middleware.WithNamespace("myapp"))
//	c, err := navigate.New(store, router, loc, navigate.WithObserver(m))
//
// Then expose the registry:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry Tracing
//
// The OpenTelemetry observer opens a span when an attempt is admitted and
// ends it when the attempt ends. The span's parent is the context passed to
// Push, Replace, Back, Forward or Refresh.
//
//	tracer := middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithAttemptFilter(func(a navigate.Attempt) bool {
//	        return a.Op != navigate.OpRefresh
//	    }),
//	)
package middleware
