// Package serve provides the HTTP server command.
package serve

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/server"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the REST API server",
		Long: `Start the tally REST API.

Features:
  - Row listing, search, sorting and pagination
  - Duplicate-checked inserts (409 with the matching record)
  - Workbook and CSV analysis and import
  - Dataset export with optional gzip or zstd compression
  - Rate limiting (requests per minute per IP)
  - CORS support for web applications
  - Prometheus metrics at /metrics
  - Graceful shutdown on SIGINT and SIGTERM`,
		Example: `  # Start on the default port 3001
  tally serve

  # Restrict CORS and raise the rate limit
  tally serve --cors-origins "https://example.com" --rate-limit 600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd)
			if err != nil {
				return err
			}
			logger := app.Logger()
			logger.Info().
				Str("host", cfg.Host).
				Int("port", cfg.Port).
				Str("prefix", cfg.PathPrefix).
				Bool("cors", cfg.CORSEnabled).
				Int("rate_limit", cfg.RateLimit).
				Bool("metrics", cfg.MetricsEnabled).
				Msg("Starting API server")

			srv, err := server.New(app, cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().String("host", defaults.Host, "bind address")
	cmd.Flags().Int("port", defaults.Port, "server port")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", defaults.CORSEnabled, "enable CORS")
	cmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated, default all)")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "requests per minute per IP (0 to disable)")
	cmd.Flags().Int64("max-upload", defaults.MaxUploadSize, "largest accepted upload in bytes")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "serve Prometheus metrics at /metrics")

	return cmd
}

// parseConfig builds the server configuration from flags. HTTP_HOST and
// HTTP_PORT override the flags when set.
func parseConfig(cmd *cobra.Command) (server.Config, error) {
	cfg := server.Config{
		Host:           mustGetString(cmd, "host"),
		Port:           mustGetInt(cmd, "port"),
		PathPrefix:     mustGetString(cmd, "prefix"),
		CORSEnabled:    mustGetBool(cmd, "cors"),
		CORSOrigins:    mustGetStringSlice(cmd, "cors-origins"),
		RateLimit:      mustGetInt(cmd, "rate-limit"),
		MaxUploadSize:  mustGetInt64(cmd, "max-upload"),
		ReadTimeout:    mustGetDuration(cmd, "read-timeout"),
		WriteTimeout:   mustGetDuration(cmd, "write-timeout"),
		IdleTimeout:    mustGetDuration(cmd, "idle-timeout"),
		MetricsEnabled: mustGetBool(cmd, "metrics"),
	}

	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}
	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		p, err := strconv.Atoi(envPort)
		if err != nil {
			return server.Config{}, fmt.Errorf("invalid HTTP_PORT %q", envPort)
		}
		cfg.Port = p
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return server.Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// The flag getters below panic because the flags are defined in this
// package; a failure is a programming error.

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetInt64(cmd *cobra.Command, name string) int64 {
	v, err := cmd.Flags().GetInt64(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}
