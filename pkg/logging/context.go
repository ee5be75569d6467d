package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// Field names shared by every component that logs.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldDataset   = "dataset"
	FieldRecordID  = "record_id"
	FieldRow       = "row"
	FieldIDField   = "id_field"
	FieldDryRun    = "dry_run"
)

type contextKey struct{ name string }

var (
	loggerKey    = contextKey{"logger"}
	requestIDKey = contextKey{"request_id"}
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithRequestID records the HTTP request id and tags the context logger with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldRequestID, id) })
}

// RequestID returns the request id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOperation tags the context logger with the client operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldOperation, op) })
}

// WithDataset tags the context logger with the dataset being worked on.
func WithDataset(ctx context.Context, dataset string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldDataset, dataset) })
}

// WithRecord tags the context logger with a record identifier.
func WithRecord(ctx context.Context, id string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldRecordID, id) })
}

// WithRow tags the context logger with a zero-based row position.
func WithRow(ctx context.Context, index int) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Int(FieldRow, index) })
}

// WithImport tags the context logger for an import run.
func WithImport(ctx context.Context, dataset, idField string, dryRun bool) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(FieldDataset, dataset).Str(FieldIDField, idField).Bool(FieldDryRun, dryRun)
	})
}

// WithFields tags the context logger with arbitrary fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithError tags the context logger with err. A nil err leaves ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

func with(ctx context.Context, add func(zerolog.Context) zerolog.Context) context.Context {
	logger := add(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &logger)
}
