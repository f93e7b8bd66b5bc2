package middleware

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navflow/pkg/navigate"
)

// Default tracer name for navflow.
const defaultTracerName = "navflow"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "navflow").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// IncludeElement includes the triggering element id in spans.
	// Enabled by default.
	IncludeElement bool

	// Filter determines which attempts to trace.
	// Return true to trace the attempt, false to skip.
	// If nil, all attempts are traced.
	Filter func(a navigate.Attempt) bool

	// AttributeExtractor extracts custom attributes from an attempt.
	AttributeExtractor func(a navigate.Attempt) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeElement enables/disables including the element id in spans.
func WithIncludeElement(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeElement = include
	}
}

// WithAttemptFilter sets a filter function for attempts.
func WithAttemptFilter(filter func(a navigate.Attempt) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(a navigate.Attempt) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:     defaultTracerName,
		IncludeElement: true,
	}
}

// Tracer is a navigate.Observer that records one span per navigation attempt.
// The span is a child of the context the navigation was requested with, so
// it joins the trace of the handler that triggered it.
type Tracer struct {
	config OTelConfig
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ navigate.Observer = (*Tracer)(nil)

// OpenTelemetry creates a tracing observer.
//
// Example:
//
//	t := middleware.OpenTelemetry(middleware.WithTracerName("my-app"))
//	c, _ := navigate.New(store, router, loc, navigate.WithObserver(t))
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before starting:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: tp.Tracer(config.TracerName),
		spans:  make(map[string]trace.Span),
	}
}

// NavigationStarted implements navigate.Observer.
func (t *Tracer) NavigationStarted(a navigate.Attempt) {
	if t.config.Filter != nil && !t.config.Filter(a) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("navflow.nav_id", a.ID),
		attribute.String("navflow.op", string(a.Op)),
		attribute.String("navflow.target", a.Target),
		attribute.String("navflow.origin", a.Origin.String()),
	}
	if t.config.IncludeElement && a.ElementID != "" {
		attrs = append(attrs, attribute.String("navflow.element", a.ElementID))
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(a)...)
	}

	parent := a.Ctx
	if parent == nil {
		parent = context.Background()
	}
	_, span := t.tracer.Start(parent, "navflow."+string(a.Op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(a.Started),
	)

	t.mu.Lock()
	t.spans[a.ID] = span
	t.mu.Unlock()
}

// NavigationFailed implements navigate.Observer.
func (t *Tracer) NavigationFailed(a navigate.Attempt, err error) {
	if span := t.span(a.ID, false); span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// NavigationEnded implements navigate.Observer.
func (t *Tracer) NavigationEnded(a navigate.Attempt, d navigate.Detector, elapsed time.Duration) {
	span := t.span(a.ID, true)
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String("navflow.detector", string(d)),
		attribute.Int64("navflow.elapsed_ms", elapsed.Milliseconds()),
	)
	switch d {
	case navigate.DetectorFailure:
		// Status was set by NavigationFailed.
	case navigate.DetectorTimeout:
		span.SetStatus(codes.Error, "navigation timed out")
	case navigate.DetectorExternal, navigate.DetectorClosed:
		// Outcome unknown; status stays unset.
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(a.Started.Add(elapsed)))
}

// NavigationDropped implements navigate.Observer. A dropped request is
// recorded as an event on every span still open.
func (t *Tracer) NavigationDropped(op navigate.Op, target string) {
	t.mu.Lock()
	open := make([]trace.Span, 0, len(t.spans))
	for _, span := range t.spans {
		open = append(open, span)
	}
	t.mu.Unlock()

	for _, span := range open {
		span.AddEvent("navflow.dropped", trace.WithAttributes(
			attribute.String("navflow.op", string(op)),
			attribute.String("navflow.target", target),
		))
	}
}

// SpanFor returns the open span of the attempt with the given id, or nil.
func (t *Tracer) SpanFor(navID string) trace.Span {
	return t.span(navID, false)
}

// Open returns the number of spans not yet ended.
func (t *Tracer) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

func (t *Tracer) span(navID string, remove bool) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.spans[navID]
	if !ok {
		return nil
	}
	if remove {
		delete(t.spans, navID)
	}
	return span
}
