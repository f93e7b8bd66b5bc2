package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/navflow/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "navflow.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "navflow.yaml"

	// DefaultPort is the default bridge server port.
	DefaultPort = 7300

	// DefaultHost is the default bridge server host.
	DefaultHost = "localhost"

	// DefaultSettleTimeout matches navigate.DefaultSettleTimeout.
	DefaultSettleTimeout = 15 * time.Second

	// DefaultSocketPath is the WebSocket endpoint of the bridge.
	DefaultSocketPath = "/nav/ws"

	// DefaultMetricsPath is where the Prometheus handler is mounted.
	DefaultMetricsPath = "/metrics"

	// DefaultEventRate is the sustained platform events per second allowed
	// for one session.
	DefaultEventRate = 20.0

	// DefaultEventBurst is the platform event burst allowed for one session.
	DefaultEventBurst = 40
)

// searchOrder lists the file names Load looks for, in order.
var searchOrder = []string{ConfigFileName, YAMLConfigFileName, "navflow.yml"}

// Config represents the complete navflow configuration.
type Config struct {
	// SettleTimeout bounds how long an attempt may stay in flight.
	// Zero disables the timeout.
	SettleTimeout Duration `json:"settleTimeout" yaml:"settleTimeout"`

	// Server contains bridge server configuration.
	Server ServerConfig `json:"server" yaml:"server"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log contains logger configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains bridge server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// SocketPath is the WebSocket endpoint.
	SocketPath string `json:"socketPath,omitempty" yaml:"socketPath,omitempty"`

	// AllowedOrigins lists the origins allowed to open a socket.
	// Empty means same-origin only; "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`

	// EventRate is the sustained platform events per second per session.
	EventRate float64 `json:"eventRate,omitempty" yaml:"eventRate,omitempty"`

	// EventBurst is the platform event burst per session.
	EventBurst int `json:"eventBurst,omitempty" yaml:"eventBurst,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled mounts the metrics handler and attaches the metrics observer.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Path is the metrics endpoint.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Duration is a time.Duration that reads and writes as a Go duration
// string ("15s", "500ms"). A bare JSON number is taken as milliseconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\" or a number of milliseconds: %s", data)
	}
	*d = Duration(ms * float64(time.Millisecond))
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(ms * float64(time.Millisecond))
		return nil
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default creates a new Config with default values.
func Default() *Config {
	return &Config{
		SettleTimeout: Duration(DefaultSettleTimeout),
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			SocketPath:      DefaultSocketPath,
			EventRate:       DefaultEventRate,
			EventBurst:      DefaultEventBurst,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "navflow",
			Path:      DefaultMetricsPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// navflow.json, then navflow.yaml, then navflow.yml. A directory without
// any of them yields the defaults.
func Load(dir string) (*Config, error) {
	if path, ok := Find(dir); ok {
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("N006").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("N005").Wrap(err).WithField("path", path)
	}

	cfg := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	}
	if err != nil {
		return nil, errors.New("N005").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid and uses known field names").
			WithField("path", path)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("N005").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("N005").Wrap(err).WithField("path", path)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from, or "" for
// defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SocketPath == "" {
		c.Server.SocketPath = DefaultSocketPath
	}
	if c.Server.EventRate == 0 {
		c.Server.EventRate = DefaultEventRate
	}
	if c.Server.EventBurst == 0 {
		c.Server.EventBurst = DefaultEventBurst
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.SettleTimeout < 0:
		return invalid("settleTimeout", "must not be negative")
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return invalid("server.port", "must be between 0 and 65535")
	case c.Server.EventRate < 0:
		return invalid("server.eventRate", "must not be negative")
	case c.Server.EventBurst < 0:
		return invalid("server.eventBurst", "must not be negative")
	case c.Server.ShutdownTimeout < 0:
		return invalid("server.shutdownTimeout", "must not be negative")
	case !strings.HasPrefix(c.Server.SocketPath, "/"):
		return invalid("server.socketPath", "must start with /")
	case c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/"):
		return invalid("metrics.path", "must start with /")
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log.level", "must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", `must be "text" or "json"`)
	}
	return nil
}

func invalid(field, detail string) error {
	return errors.New("N004").
		WithDetail(field + " " + detail).
		WithField("field", field)
}

// Address returns the host:port the bridge listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// NewLogger builds the logger described by Log, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Find returns the first configuration file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range searchOrder {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
