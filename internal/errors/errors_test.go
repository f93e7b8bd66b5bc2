package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "missing store",
			code:    "N001",
			wantMsg: "Navigation store not provided",
			wantCat: CategoryConfig,
		},
		{
			name:    "navigation failure",
			code:    "N020",
			wantMsg: "Navigation failed",
			wantCat: CategoryNavigation,
		},
		{
			name:    "transport error",
			code:    "N060",
			wantMsg: "WebSocket connection failed",
			wantCat: CategoryTransport,
		},
		{
			name:    "unknown error code",
			code:    "N999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "flag %q is required", "addr")
	if err.Message != `flag "addr" is required` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code should be empty, got %q", err.Code)
	}
	if err.Error() != err.Message {
		t.Errorf("Error() without code should equal message")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New("N001")
	err := New("N001").WithField("op", "push")

	if !stderrors.Is(err, sentinel) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New("N002")) {
		t.Error("errors with different codes should not match")
	}
	if stderrors.Is(Newf(CategoryCLI, "x"), Newf(CategoryCLI, "x")) {
		t.Error("uncoded errors should not match by code")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("N020").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "N020") != nil {
		t.Error("nil error should stay nil")
	}

	existing := New("N021")
	if got := FromError(existing, "N020"); got != existing {
		t.Error("existing NavError should be returned unchanged")
	}

	got := FromError(stderrors.New("plain"), "N020")
	if got.Code != "N020" || got.Wrapped == nil {
		t.Errorf("plain error should be wrapped with N020, got %+v", got)
	}
}

func TestCategoryOf(t *testing.T) {
	if CategoryOf(New("N001")) != CategoryConfig {
		t.Error("expected config category")
	}
	if CategoryOf(stderrors.New("x")) != "" {
		t.Error("plain errors have no category")
	}
}

func TestLogAttrs(t *testing.T) {
	attrs := New("N020").WithField("nav_id", "1-a").Wrap(stderrors.New("x")).LogAttrs()
	if len(attrs) != 6 {
		t.Fatalf("expected 6 attr entries, got %d: %v", len(attrs), attrs)
	}
	if attrs[0] != "code" || attrs[1] != "N020" {
		t.Errorf("first pair should be code, got %v", attrs[:2])
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("N001").WithField("op", "push").Format()
	for _, want := range []string{"ERROR N001: Navigation store not provided", "op: push", "Hint: "} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	var decoded map[string]any
	raw := New("N020").Wrap(stderrors.New("rejected")).FormatJSON()
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", raw, err)
	}
	if decoded["code"] != "N020" || decoded["cause"] != "rejected" {
		t.Errorf("unexpected JSON: %v", decoded)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, New("N080"))
	if !strings.Contains(buf.String(), "N080") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("N022"); !ok {
		t.Error("N022 should be registered")
	}
	if _, ok := Lookup("E001"); ok {
		t.Error("unexpected code registered")
	}
}
