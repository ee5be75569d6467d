package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally"
)

var _ Application = (*Mock)(nil)

// Mock is an Application whose methods are backed by function fields.
// A nil field returns a zero or default value.
type Mock struct {
	TallyFunc        func() (tally.Tally, error)
	MetricsFunc      func() *prometheus.Registry
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Tally returns the engine from TallyFunc or nil.
func (m *Mock) Tally() (tally.Tally, error) {
	if m.TallyFunc != nil {
		return m.TallyFunc()
	}
	return nil, nil
}

// Metrics returns the registry from MetricsFunc or nil.
func (m *Mock) Metrics() *prometheus.Registry {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// Logger returns a logger from LoggerFunc or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format from OutputFormatFunc or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns the version from VersionFunc or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
