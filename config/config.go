// Package config has the configuration for the medicine shop service
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Storage backends accepted by STORAGE_BACKEND
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	StorageBackend string
	StorageDir     string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32

	CatalogSource         string // File path or http(s) URL of the purchasable medicines list
	CatalogRefreshMinutes int

	SessionSecret   string
	SessionTTLHours int

	PredictURL  string // Upstream disease prediction endpoint, optional
	CORSOrigins []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", "dev")),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		StorageBackend: strings.ToLower(getEnvWithDefault("STORAGE_BACKEND", StorageFile)),
		StorageDir:     getEnvWithDefault("STORAGE_DIR", "state"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     int32(getIntEnvWithDefault("DB_MAX_CONNS", 10)),
		DBMinConns:     int32(getIntEnvWithDefault("DB_MIN_CONNS", 2)),

		CatalogSource:         getEnvWithDefault("CATALOG_SOURCE", "purchase_medicines.json"),
		CatalogRefreshMinutes: getIntEnvWithDefault("CATALOG_REFRESH_MINUTES", 60),

		SessionSecret:   os.Getenv("SESSION_SECRET"),
		SessionTTLHours: getIntEnvWithDefault("SESSION_TTL_HOURS", 24*30),

		PredictURL:  os.Getenv("PREDICT_URL"),
		CORSOrigins: splitList(getEnvWithDefault("CORS_ORIGINS", "*")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateStorage(cfg); err != nil {
		return fmt.Errorf("invalid STORAGE_BACKEND: %w", err)
	}

	if cfg.CatalogRefreshMinutes < 1 || cfg.CatalogRefreshMinutes > 24*60 {
		return fmt.Errorf("invalid CATALOG_REFRESH_MINUTES: must be between 1 and 1440, got: %d", cfg.CatalogRefreshMinutes)
	}

	if err := validateSession(cfg); err != nil {
		return fmt.Errorf("invalid SESSION_SECRET: %w", err)
	}

	if cfg.SessionTTLHours < 1 {
		return fmt.Errorf("invalid SESSION_TTL_HOURS: must be positive, got: %d", cfg.SessionTTLHours)
	}

	if cfg.PredictURL != "" {
		if err := validateURL(cfg.PredictURL); err != nil {
			return fmt.Errorf("invalid PREDICT_URL: %w", err)
		}
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateStorage checks the backend name and the settings it depends on
func validateStorage(cfg *Config) error {
	switch cfg.StorageBackend {
	case StorageMemory:
		return nil
	case StorageFile:
		if strings.TrimSpace(cfg.StorageDir) == "" {
			return fmt.Errorf("STORAGE_DIR cannot be empty for the file backend")
		}
		return nil
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range: %d/%d", cfg.DBMinConns, cfg.DBMaxConns)
		}
		return nil
	}

	return fmt.Errorf("STORAGE_BACKEND must be one of: [%s %s %s], got: %s",
		StorageMemory, StorageFile, StoragePostgres, cfg.StorageBackend)
}

// validateSession requires a real secret outside of dev and test
func validateSession(cfg *Config) error {
	if cfg.SessionSecret == "" {
		if cfg.Env == "prod" || cfg.Env == "staging" {
			return fmt.Errorf("SESSION_SECRET is required in %s", cfg.Env)
		}
		return nil
	}

	if len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters, got: %d", len(cfg.SessionSecret))
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host cannot be empty")
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"STORAGE_BACKEND",
		"STORAGE_DIR",
		"DATABASE_URL",
		"DB_MAX_CONNS",
		"DB_MIN_CONNS",
		"CATALOG_SOURCE",
		"CATALOG_REFRESH_MINUTES",
		"SESSION_SECRET",
		"SESSION_TTL_HOURS",
		"PREDICT_URL",
		"CORS_ORIGINS",
	}
}
