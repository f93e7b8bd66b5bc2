package navigate

import (
	"testing"
	"time"
)

func TestBuildPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]any
		want   string
	}{
		{"no params", "/users", nil, "/users"},
		{"sorted keys", "/search", map[string]any{"q": "go", "page": 2}, "/search?page=2&q=go"},
		{"merges existing query", "/search?q=old&sort=asc", map[string]any{"q": "new"}, "/search?q=new&sort=asc"},
		{"escapes values", "/search", map[string]any{"q": "a b&c"}, "/search?q=a+b%26c"},
		{"bool value", "/list", map[string]any{"archived": true}, "/list?archived=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPath(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestApplyNavigateOptions(t *testing.T) {
	o := ApplyNavigateOptions(WithReplace(), WithElement("nav-home"), WithParams(map[string]any{"tab": "a"}))
	if !o.Replace || o.ElementID != "nav-home" || o.Params["tab"] != "a" {
		t.Errorf("unexpected options %+v", o)
	}

	if d := ApplyNavigateOptions(); d.Replace || d.ElementID != "" || d.Params != nil {
		t.Errorf("defaults should be zero, got %+v", d)
	}
}

func TestCoordinatorOptions(t *testing.T) {
	c := &Coordinator{settleTimeout: DefaultSettleTimeout}

	WithSettleTimeout(time.Second)(c)
	if c.settleTimeout != time.Second {
		t.Errorf("settle timeout = %v, want 1s", c.settleTimeout)
	}

	WithObserver(NopObserver{})(c)
	WithObserver(nil)(c)
	if len(c.observers) != 1 {
		t.Errorf("observers = %d, want 1", len(c.observers))
	}

	WithIDGenerator(func() string { return "fixed" })(c)
	if c.newID() != "fixed" {
		t.Error("id generator not applied")
	}
}

func TestPlatformEventTriggers(t *testing.T) {
	for _, ev := range []PlatformEvent{EventPopState, EventPageShow, EventFocus, EventVisible} {
		if !ev.Triggers() {
			t.Errorf("%q should trigger a platform check", ev)
		}
	}
	if PlatformEvent("blur").Triggers() {
		t.Error("blur should not trigger a platform check")
	}
}
