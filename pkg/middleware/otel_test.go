package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/navflow/pkg/navigate"
	"github.com/vango-dev/navflow/pkg/navtest"
)

// recordingProvider hands out spans that remember what was done to them.
type recordingProvider struct {
	embedded.TracerProvider

	mu    sync.Mutex
	spans []*recordingSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return recordingTracer{p: p}
}

func (p *recordingProvider) all() []*recordingSpan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*recordingSpan(nil), p.spans...)
}

type recordingTracer struct {
	embedded.Tracer
	p *recordingProvider
}

func (t recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{name: name, attrs: map[attribute.Key]attribute.Value{}}
	for _, kv := range cfg.Attributes() {
		s.attrs[kv.Key] = kv.Value
	}
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, s)
	t.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span

	mu     sync.Mutex
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	events []string
	ended  bool
}

func (s *recordingSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *recordingSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.mu.Lock()
	s.events = append(s.events, name)
	s.mu.Unlock()
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.mu.Lock()
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
	s.mu.Unlock()
}

func (s *recordingSpan) attr(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs[attribute.Key(key)].Emit()
}

func TestOpenTelemetry_SpanPerAttempt(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(WithTracerProvider(tp), WithAttributeExtractor(func(navigate.Attempt) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	}))

	h := navtest.New(t, navigate.WithObserver(tracer))
	h.Coordinator.Push(context.Background(), "/users", navigate.WithElement("users-link"))

	spans := tp.all()
	if len(spans) != 1 {
		t.Fatalf("spans=%d, want 1", len(spans))
	}
	s := spans[0]
	if s.name != "navflow.push" {
		t.Errorf("span name=%q", s.name)
	}
	if s.attr("navflow.target") != "/users" || s.attr("navflow.element") != "users-link" || s.attr("test.attr") != "ok" {
		t.Errorf("unexpected attributes %v", s.attrs)
	}
	if s.attr("navflow.detector") != "location" {
		t.Errorf("detector attribute=%q", s.attr("navflow.detector"))
	}
	if !s.ended || s.status != codes.Ok {
		t.Errorf("span ended=%v status=%v", s.ended, s.status)
	}
	if tracer.Open() != 0 {
		t.Errorf("open spans=%d, want 0", tracer.Open())
	}
}

func TestOpenTelemetry_FailureRecordsError(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(WithTracerProvider(tp))

	h := navtest.New(t, navigate.WithObserver(tracer))
	h.Router.PushFunc = func(context.Context, string) error { return errors.New("boom") }
	h.Coordinator.Push(context.Background(), "/a")

	s := tp.all()[0]
	if len(s.errs) != 1 || s.status != codes.Error || !s.ended {
		t.Errorf("errs=%v status=%v ended=%v", s.errs, s.status, s.ended)
	}
}

func TestOpenTelemetry_TimeoutIsError(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(WithTracerProvider(tp))

	a := navigate.Attempt{ID: "n1", Op: navigate.OpRefresh, Target: "/", Started: time.Now()}
	tracer.NavigationStarted(a)
	tracer.NavigationEnded(a, navigate.DetectorTimeout, time.Second)

	if s := tp.all()[0]; s.status != codes.Error || !s.ended {
		t.Errorf("status=%v ended=%v", s.status, s.ended)
	}
}

func TestOpenTelemetry_DroppedRequestsBecomeEvents(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(WithTracerProvider(tp))

	h := navtest.New(t, navigate.WithObserver(tracer))
	release := h.Router.Hold()
	h.Router.LagReactive()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Coordinator.Push(context.Background(), "/slow")
	}()
	navtest.WaitNavigating(t, h.Store)

	if tracer.SpanFor(h.Store.NavID()) == nil {
		t.Fatal("expected an open span for the in-flight attempt")
	}
	h.Coordinator.Push(context.Background(), "/ignored")

	release()
	<-done

	s := tp.all()[0]
	if len(s.events) != 1 || s.events[0] != "navflow.dropped" {
		t.Errorf("events=%v", s.events)
	}
}

func TestOpenTelemetry_FilterSkipsAttempt(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(
		WithTracerProvider(tp),
		WithAttemptFilter(func(a navigate.Attempt) bool { return a.Op != navigate.OpRefresh }),
	)

	a := navigate.Attempt{ID: "n1", Op: navigate.OpRefresh, Started: time.Now()}
	tracer.NavigationStarted(a)
	tracer.NavigationEnded(a, navigate.DetectorSettle, 0)

	if len(tp.all()) != 0 {
		t.Fatal("filtered attempt should not be traced")
	}
}

func TestOpenTelemetry_DefaultProvider(t *testing.T) {
	tracer := OpenTelemetry(WithIncludeElement(false))
	a := navigate.Attempt{ID: "n1", Op: navigate.OpPush, ElementID: "x", Started: time.Now()}
	tracer.NavigationStarted(a)
	if tracer.SpanFor("n1") == nil {
		t.Fatal("expected span from the global provider")
	}
	tracer.NavigationEnded(a, navigate.DetectorSettle, 0)
	if tracer.Open() != 0 {
		t.Fatal("span should be closed")
	}
}

func TestOpenTelemetry_ExternalEndClosesSpan(t *testing.T) {
	tp := &recordingProvider{}
	tracer := OpenTelemetry(WithTracerProvider(tp))

	h := navtest.New(t, navigate.WithObserver(tracer))
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

	if tracer.Open() != 0 {
		t.Fatalf("open spans=%d, want 0", tracer.Open())
	}
	s := tp.all()[0]
	if !s.ended || s.status != codes.Unset || s.attr("navflow.detector") != "external" {
		t.Errorf("span ended=%v status=%v detector=%q", s.ended, s.status, s.attr("navflow.detector"))
	}
}
