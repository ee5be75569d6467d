package store

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/agentstation/tally/pkg/errors"
)

// Compression selects how exported dataset bytes are encoded.
type Compression string

// Compression constants.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// IsValid checks if the compression is supported.
func (c Compression) IsValid() bool {
	switch c {
	case CompressionNone, CompressionGzip, CompressionZstd:
		return true
	default:
		return false
	}
}

// Extension returns the file suffix for the compression.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// ContentType returns the MIME type of an export with this compression.
func (c Compression) ContentType() string {
	switch c {
	case CompressionGzip:
		return "application/gzip"
	case CompressionZstd:
		return "application/zstd"
	default:
		return "text/csv"
	}
}

// ParseCompression maps a user-supplied name onto a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	}
	return CompressionNone, errors.NewValidationError("compression", s, "must be none, gzip or zstd")
}

// ExportOptions is the configuration for Export.
type ExportOptions struct {
	compression Compression
	level       int
}

// Compression returns the configured compression.
func (o *ExportOptions) Compression() Compression {
	return o.compression
}

// ExportOption configures an export.
type ExportOption func(*ExportOptions)

// WithCompression compresses the exported bytes.
func WithCompression(c Compression) ExportOption {
	return func(o *ExportOptions) {
		o.compression = c
	}
}

// WithLevel sets the compression level. For gzip it is a gzip level (1-9);
// for zstd it is mapped with zstd.EncoderLevelFromZstd.
func WithLevel(level int) ExportOption {
	return func(o *ExportOptions) {
		o.level = level
	}
}

func defaultExportOptions() *ExportOptions {
	return &ExportOptions{compression: CompressionNone}
}

// Apply applies the given options.
func (o *ExportOptions) Apply(opts ...ExportOption) *ExportOptions {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func compress(data []byte, o *ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch o.compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		level := gzip.DefaultCompression
		if o.level != 0 {
			level = o.level
		}
		w, err = gzip.NewWriterLevel(&buf, level)
	case CompressionZstd:
		zopts := []zstd.EOption{}
		if o.level != 0 {
			zopts = append(zopts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(o.level)))
		}
		w, err = zstd.NewWriter(&buf, zopts...)
	default:
		return nil, errors.NewValidationError("compression", string(o.compression), "unsupported compression")
	}
	if err != nil {
		return nil, errors.NewValidationError("compression", o.level, err.Error())
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.WrapIO("compress", "", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.WrapIO("compress", "", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses an export's compression.
func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.WrapParse("gzip", "", err)
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(zr)
		return out, errors.WrapParse("gzip", "", err)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.WrapParse("zstd", "", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		return out, errors.WrapParse("zstd", "", err)
	}
	return nil, errors.NewValidationError("compression", string(c), "unsupported compression")
}
