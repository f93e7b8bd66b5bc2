package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	navErrors "github.com/vango-dev/navflow/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.SettleTimeout.Std() != DefaultSettleTimeout {
		t.Errorf("SettleTimeout = %v, want %v", cfg.SettleTimeout, DefaultSettleTimeout)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Missing config yields defaults
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load without config: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}

	configJSON := `{
  "settleTimeout": "3s",
  "server": {
    "port": 8080,
    "host": "0.0.0.0",
    "allowedOrigins": ["https://app.example.com"],
    "eventRate": 5
  },
  "metrics": {
    "enabled": false
  },
  "log": {
    "level": "debug",
    "format": "json"
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.SettleTimeout.Std() != 3*time.Second {
		t.Errorf("SettleTimeout = %v, want 3s", cfg.SettleTimeout)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.EventRate != 5 || cfg.Server.EventBurst != DefaultEventBurst {
		t.Errorf("EventRate = %v, EventBurst = %d", cfg.Server.EventRate, cfg.Server.EventBurst)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default", cfg.Metrics.Path)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `settleTimeout: 750ms
server:
  port: 9000
  socketPath: /ws
  eventBurst: 3
metrics:
  enabled: true
  namespace: shop
log:
  level: warn
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SettleTimeout.Std() != 750*time.Millisecond {
		t.Errorf("SettleTimeout = %v", cfg.SettleTimeout)
	}
	if cfg.Server.Port != 9000 || cfg.Server.SocketPath != "/ws" || cfg.Server.EventBurst != 3 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Metrics.Namespace != "shop" {
		t.Errorf("Metrics.Namespace = %q", cfg.Metrics.Namespace)
	}
	if level, _ := cfg.SlogLevel(); level != slog.LevelWarn {
		t.Errorf("SlogLevel = %v", level)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(`{"server":{"port":1111}}`), 0644)
	os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte("server:\n  port: 2222\n"), 0644)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 1111 {
		t.Errorf("Server.Port = %d, want 1111 from navflow.json", cfg.Server.Port)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"missing", "absent.json", "", "N006"},
		{"bad json", "bad.json", `{"server":`, "N005"},
		{"unknown field", "unknown.json", `{"serve":{"port":1}}`, "N005"},
		{"bad duration", "dur.json", `{"settleTimeout":"soon"}`, "N005"},
		{"bad yaml", "bad.yaml", "server: [", "N005"},
		{"negative timeout", "neg.json", `{"settleTimeout":"-1s"}`, "N004"},
		{"port range", "port.yaml", "server:\n  port: 70000\n", "N004"},
		{"log format", "log.json", `{"log":{"format":"xml"}}`, "N004"},
		{"log level", "level.json", `{"log":{"level":"loud"}}`, "N004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			var ne *navErrors.NavError
			if !errors.As(err, &ne) || ne.Code != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var v struct {
		D Duration `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":250}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.D.Std() != 250*time.Millisecond {
		t.Errorf("number should be milliseconds, got %v", v.D)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"d":"250ms"}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Port = 4242
			cfg.SettleTimeout = Duration(2 * time.Second)

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if loaded.Server.Port != 4242 || loaded.SettleTimeout.Std() != 2*time.Second {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "nav_id", "1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"nav_id":"1"`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFind(t *testing.T) {
	tmpDir := t.TempDir()
	if _, ok := Find(tmpDir); ok {
		t.Error("Find should fail in an empty directory")
	}
	os.WriteFile(filepath.Join(tmpDir, "navflow.yml"), []byte("{}\n"), 0644)
	path, ok := Find(tmpDir)
	if !ok || filepath.Base(path) != "navflow.yml" {
		t.Errorf("Find = %q, %v", path, ok)
	}
}
