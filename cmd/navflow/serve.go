package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/vango-dev/navflow/internal/config"
	"github.com/vango-dev/navflow/pkg/bridge"
	"github.com/vango-dev/navflow/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the navigation bridge",
		Long: `Start the WebSocket bridge that runs one navigation coordinator
per connected browser.

Configuration is read from navflow.json or navflow.yaml in the
directory given by --config (default: current directory).

Examples:
  navflow serve
  navflow serve --config ./deploy
  navflow serve --addr 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Address()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "Config directory or file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	logger := cfg.NewLogger(os.Stderr)
	srv := newServer(cfg, logger)

	logger.Info("navflow starting",
		"version", version,
		"address", addr,
		"config", cfg.Path(),
		"metrics", cfg.Metrics.Enabled)
	return srv.Run(ctx, addr)
}

// newServer builds the bridge described by cfg.
func newServer(cfg *config.Config, logger *slog.Logger) *bridge.Server {
	opts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithObserver(middleware.OpenTelemetry()),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := middleware.Prometheus(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, bridge.WithMetrics(m, reg))
	}

	return bridge.New(bridgeConfig(cfg), opts...)
}

// bridgeConfig maps the file configuration onto the bridge's.
func bridgeConfig(cfg *config.Config) bridge.Config {
	bc := bridge.DefaultConfig()
	bc.SocketPath = cfg.Server.SocketPath
	bc.MetricsPath = cfg.Metrics.Path
	bc.AllowedOrigins = cfg.Server.AllowedOrigins
	bc.EventRate = rate.Limit(cfg.Server.EventRate)
	bc.EventBurst = cfg.Server.EventBurst
	bc.SettleTimeout = cfg.SettleTimeout.Std()
	if cfg.Server.ShutdownTimeout > 0 {
		bc.ShutdownTimeout = cfg.Server.ShutdownTimeout.Std()
	}
	return bc
}

// loadConfig reads the configuration from a directory or a file. A path
// that does not exist is an error; a directory without a file yields the
// defaults.
func loadConfig(path string) (*config.Config, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return config.LoadFile(path)
	}
	return config.Load(path)
}
