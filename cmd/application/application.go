// Package application provides the application interface for tally commands
// and the HTTP server.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested against a Mock:
//
//	mock := &application.Mock{
//	    TallyFunc: func() (tally.Tally, error) {
//	        return tally.New(tally.WithBackend(memory.New()))
//	    },
//	}
//	cmd := rows.NewCommand(mock)
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally"
)

// Application provides what commands and the server need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Tally returns the shared engine, creating it on first use.
	Tally() (tally.Tally, error)

	// Metrics returns the registry the engine reports to. It may be nil.
	Metrics() *prometheus.Registry

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
