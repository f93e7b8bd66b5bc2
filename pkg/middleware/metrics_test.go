package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/navflow/pkg/navigate"
	"github.com/vango-dev/navflow/pkg/navtest"
)

func TestPrometheus_RecordsAttemptLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))

	h := navtest.New(t, navigate.WithObserver(m))
	ctx := context.Background()

	h.Coordinator.Push(ctx, "/a")

	if got := testutil.ToFloat64(m.started.WithLabelValues("push")); got != 1 {
		t.Fatalf("navigations_started_total(push)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ended.WithLabelValues("push", "location")); got != 1 {
		t.Fatalf("navigations_ended_total(push,location)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("navigations_in_flight=%v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Fatalf("navigation_duration_seconds series=%d, want 1", got)
	}
}

func TestPrometheus_RecordsDropsAndFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))

	h := navtest.New(t, navigate.WithObserver(m))
	release := h.Router.Hold()
	h.Router.LagReactive()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Coordinator.Push(context.Background(), "/slow")
	}()
	navtest.WaitNavigating(t, h.Store)

	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("navigations_in_flight=%v, want 1", got)
	}

	h.Coordinator.Replace(context.Background(), "/other")
	if got := testutil.ToFloat64(m.dropped.WithLabelValues("replace")); got != 1 {
		t.Fatalf("navigations_dropped_total(replace)=%v, want 1", got)
	}

	release()
	<-done

	h.Router.ForwardFunc = func() error { return errors.New("no entry") }
	h.Coordinator.Forward(context.Background())
	if got := testutil.ToFloat64(m.failures.WithLabelValues("forward")); got != 1 {
		t.Fatalf("navigation_failures_total(forward)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ended.WithLabelValues("forward", "failure")); got != 1 {
		t.Fatalf("navigations_ended_total(forward,failure)=%v, want 1", got)
	}
}

func TestPrometheus_SessionRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithNamespace("test"))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.WebSocketError("read")
	m.PlatformEventDropped()
	m.PlatformEventDropped()

	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("active_sessions=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Fatalf("websocket_errors_total(read)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.eventsDropped); got != 2 {
		t.Fatalf("platform_events_dropped_total=%v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_active_sessions" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected namespaced metric test_active_sessions")
	}
}

func TestPrometheus_NilRecorderIsSafe(t *testing.T) {
	var m *Metrics
	m.SessionOpened()
	m.SessionClosed()
	m.WebSocketError("read")
	m.PlatformEventDropped()
}

func TestPrometheus_DurationBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithBuckets([]float64{0.1, 1}))

	a := navigate.Attempt{ID: "1", Op: navigate.OpPush, Started: time.Now()}
	m.NavigationStarted(a)
	m.NavigationEnded(a, navigate.DetectorSettle, 500*time.Millisecond)

	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Fatalf("duration series=%d, want 1", got)
	}
}

func TestPrometheus_InFlightSettlesWhenRecordClearedElsewhere(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))

	h := navtest.New(t, navigate.WithObserver(m))
	release := h.Router.Hold()
	h.Router.LagReactive()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Coordinator.Push(context.Background(), "/slow")
	}()
	navtest.WaitNavigating(t, h.Store)

	h.Store.End()
	release()
	<-done

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("navigations_in_flight=%v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ended.WithLabelValues("push", "external")); got != 1 {
		t.Fatalf("navigations_ended_total(push,external)=%v, want 1", got)
	}

	// Back never settles by itself; closing the coordinator ends it.
	h.Coordinator.Back(context.Background())
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("navigations_in_flight=%v, want 1", got)
	}
	h.Coordinator.Close()
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("navigations_in_flight after Close=%v, want 0", got)
	}
}
