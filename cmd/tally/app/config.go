package app

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/tally/pkg/constants"
	pkgerrors "github.com/agentstation/tally/pkg/errors"
)

// Store backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinio  = "minio"
)

// StoreConfig selects and configures the dataset backend.
type StoreConfig struct {
	Backend   string
	Bucket    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Engine configuration
	DataDir         string
	DescriptorsFile string
	Threshold       float64
	Workers         int
	Store           StoreConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables (TALLY_ prefix, dots become underscores)
//  3. .env files
//  4. Config file (path, or .tally.yaml in the working or home directory)
//  5. Defaults
//
// A missing default config file is not an error; a missing explicit one is.
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("tally")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("threshold", constants.DefaultThreshold)
	v.SetDefault("workers", constants.MaxClassifyWorkers)
	v.SetDefault("store.backend", BackendLocal)
	v.SetDefault("store.use_ssl", true)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.NewConfigError("config", "reading "+path, err)
		}
	} else {
		v.SetConfigName(".tally")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, pkgerrors.NewConfigError("config", "reading .tally.yaml", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DataDir:         v.GetString("data_dir"),
		DescriptorsFile: v.GetString("descriptors_file"),
		Threshold:       v.GetFloat64("threshold"),
		Workers:         v.GetInt("workers"),
		Store: StoreConfig{
			Backend:   strings.ToLower(v.GetString("store.backend")),
			Bucket:    v.GetString("store.bucket"),
			Prefix:    v.GetString("store.prefix"),
			Endpoint:  v.GetString("store.endpoint"),
			AccessKey: v.GetString("store.access_key"),
			SecretKey: v.GetString("store.secret_key"),
			UseSSL:    v.GetBool("store.use_ssl"),
			Region:    v.GetString("store.region"),
		},

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log.level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", stringOr(v.GetString("log.format"), "auto")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", stringOr(v.GetString("log.output"), "stderr")),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is read first; godotenv never overrides a variable that is
// already set, so it wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
