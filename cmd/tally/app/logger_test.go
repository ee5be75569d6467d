package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestResolveLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    string
		warning bool
	}{
		{"default", Config{}, "info", false},
		{"verbose", Config{Verbose: true}, "debug", false},
		{"quiet", Config{Quiet: true}, "warn", false},
		{"verbose and quiet", Config{Verbose: true, Quiet: true}, "warn", true},
		{"explicit wins", Config{Verbose: true, LogLevel: "error"}, "error", false},
		{"trace", Config{LogLevel: "trace"}, "trace", false},
		{"invalid explicit", Config{LogLevel: "loud"}, "info", true},
		{"fatal rejected", Config{LogLevel: "fatal"}, "info", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warning := resolveLogLevel(&tt.config)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.warning, warning != "")
		})
	}
}

func TestNewLogger(t *testing.T) {
	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	logger := NewLogger(&Config{LogLevel: "warn", LogFormat: "json", LogOutput: "discard"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}
