// Package constants provides shared constants used throughout the tally codebase.
// This includes reconciliation defaults, timeouts, limits and file permissions
// that should be consistent across the library, server and CLI.
package constants

import "time"

// Reconciliation constants
const (
	// DefaultThreshold is the similarity at or above which an incoming record
	// is treated as a duplicate of a stored one
	DefaultThreshold = 0.7

	// LegacyIDCeiling is the bound below which a purely numeric identifier is
	// considered a legacy serial number and gets regenerated
	LegacyIDCeiling = 10000

	// DuplicateReportLimit is the number of duplicate details kept in an import report
	DuplicateReportLimit = 10

	// DefaultIDFormat is the identifier template used when a descriptor has none
	DefaultIDFormat = "{prefix}-{timestamp}-{sequence}"

	// DefaultIDField is the identifier column of datasets without a descriptor
	DefaultIDField = "id"

	// SourceSheetColumn records the worksheet an imported row came from
	SourceSheetColumn = "source_sheet"

	// CreatedAtColumn holds the first-write timestamp of a record
	CreatedAtColumn = "created_at"

	// UpdatedAtColumn holds the last-write timestamp of a record
	UpdatedAtColumn = "updated_at"

	// MaxClassifyWorkers bounds the goroutines used to classify a batch
	MaxClassifyWorkers = 8
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxUploadSize is the largest workbook accepted by the upload endpoints (32 MB)
	MaxUploadSize = 32 << 20

	// WriteBufferSize is the default buffer size for write operations
	WriteBufferSize = 4096

	// MaxPageSize is the maximum allowed page size for paginated rows
	MaxPageSize = 1000
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute per client
	DefaultRateLimit = 100

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 20
)

// Format constants
const (
	// TimeFormatRecord is the layout of created_at and updated_at values
	TimeFormatRecord = "2006-01-02T15:04:05.000Z"

	// TimeFormatDate is the layout normalized spreadsheet dates are written in
	TimeFormatDate = "2006-01-02"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

// Path constants
const (
	// DefaultDataDir is where the local backend keeps dataset files
	DefaultDataDir = "data"

	// DefaultConfigFile is the config file name looked up in the working and home directories
	DefaultConfigFile = ".tally.yaml"
)
