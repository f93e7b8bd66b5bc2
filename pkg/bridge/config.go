package bridge

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/navflow/pkg/navigate"
)

// Config configures the bridge server.
type Config struct {
	// SocketPath is the WebSocket endpoint. Default: "/nav/ws".
	SocketPath string

	// MetricsPath is where the Prometheus handler is mounted when metrics
	// are enabled with WithMetrics. Default: "/metrics".
	MetricsPath string

	// AllowedOrigins lists the origins allowed to open a socket. Empty
	// means same-origin only; "*" allows any origin.
	AllowedOrigins []string

	// EventRate is the sustained platform events per second accepted from
	// one session. Excess events are dropped. Zero means no limit.
	EventRate rate.Limit

	// EventBurst is the platform event burst accepted from one session.
	EventBurst int

	// SettleTimeout is passed to every session's coordinator.
	SettleTimeout time.Duration

	// ReadTimeout closes a session that sends nothing, not even a pong,
	// for this long.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single write to the client.
	WriteTimeout time.Duration

	// MaxMessageSize is the largest client message accepted, in bytes.
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SocketPath:      "/nav/ws",
		MetricsPath:     "/metrics",
		EventRate:       20,
		EventBurst:      40,
		SettleTimeout:   navigate.DefaultSettleTimeout,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  64 * 1024,
		ShutdownTimeout: 10 * time.Second,
	}
}

// withDefaults fills in defaults for unset fields.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SocketPath == "" {
		c.SocketPath = defaults.SocketPath
	}
	if c.MetricsPath == "" {
		c.MetricsPath = defaults.MetricsPath
	}
	if c.EventBurst == 0 {
		c.EventBurst = defaults.EventBurst
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return c
}

// limit returns the configured event rate, with zero meaning unlimited.
func (c Config) limit() rate.Limit {
	if c.EventRate <= 0 {
		return rate.Inf
	}
	return c.EventRate
}

// checkOrigin builds the upgrader's origin check for allowed.
func checkOrigin(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
