package config

import (
	"os"
	"strconv"
	"time"

	"invoicegen/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig `validate:"required"`
	Paths      PathConfig   `validate:"required"`
	Generation GenerationConfig
	Report     ReportConfig
}

// DatabaseConfig holds database connection settings. The audit trail is
// optional: an empty URL disables session persistence without failing
// startup.
type DatabaseConfig struct {
	URL      string
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// Enabled reports whether session persistence is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string `validate:"required"`
	GinMode     string
	ConsolePort string
}

// PathConfig holds file system paths
type PathConfig struct {
	BundleDir   string `validate:"required"`
	TemplateDir string `validate:"required"`
	OutputDir   string `validate:"required"`
}

// GenerationConfig holds rendering defaults and batch limits
type GenerationConfig struct {
	BatchConcurrency int
	SheetTimeout     time.Duration
	KeepTemplateName bool
}

// ReportConfig holds post-run report settings
type ReportConfig struct {
	Enabled bool
	Dir     string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Database = loadDatabaseConfig()
	config.Server = loadServerConfig()
	config.Paths = loadPathConfig()
	config.Generation = loadGenerationConfig()
	config.Report = loadReportConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnvOrDefault("DATABASE_URL", ""),
		User:     getEnvOrDefault("DB_USER", ""),
		Password: getEnvOrDefault("DB_PASS", ""),
		Name:     getEnvOrDefault("DB_NAME", ""),
		Host:     getEnvOrDefault("DB_HOST", ""),
		Port:     getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode:  getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		ConsolePort: getEnvOrDefault("CONSOLE_PORT", "8090"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		BundleDir:   getEnvOrDefault("BUNDLE_DIR", "./bundled"),
		TemplateDir: getEnvOrDefault("TEMPLATE_DIR", "./templates"),
		OutputDir:   getEnvOrDefault("OUTPUT_DIR", "./result"),
	}
}

func loadGenerationConfig() GenerationConfig {
	return GenerationConfig{
		BatchConcurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4),
		SheetTimeout:     getEnvDurationOrDefault("SHEET_TIMEOUT", 2*time.Minute),
		KeepTemplateName: getEnvBoolOrDefault("KEEP_TEMPLATE_NAME", false),
	}
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		Enabled: getEnvBoolOrDefault("REPORT_ENABLED", true),
		Dir:     getEnvOrDefault("REPORT_DIR", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Paths.BundleDir == "" {
		return errors.ConfigInvalid("bundle directory is required")
	}
	if config.Paths.TemplateDir == "" {
		return errors.ConfigInvalid("template directory is required")
	}
	if config.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Generation.BatchConcurrency < 1 {
		return errors.ConfigInvalid("batch concurrency must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
