// Package handlers provides HTTP request handlers for the tally API.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/pkg/errors"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	tally         tally.Tally
	logger        *zerolog.Logger
	maxUploadSize int64
	version       string
	startTime     time.Time
}

// New creates a new Handlers instance.
func New(t tally.Tally, logger *zerolog.Logger, maxUploadSize int64, version string, startTime time.Time) *Handlers {
	return &Handlers{
		tally:         t,
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       version,
		startTime:     startTime,
	}
}

// pathIndex parses the {index} URL parameter.
func pathIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError("index", raw, "must be a whole number")
	}
	return i, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name, raw, "must be a whole number")
	}
	return n, nil
}
