package app

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
)

// registryConfigPath is the registry file location relative to the XDG
// config directories.
const registryConfigPath = "idpolicy/registry.yaml"

type Config struct {
	RegistryFile      string        // Optional: registry YAML (default: first idpolicy/registry.yaml on the XDG config path)
	WatchRegistry     bool          // Optional: reload the registry file when it changes (default: true)
	DatabaseFile      string        // Optional: SQLite database for consents (default: ./idpolicy.db)
	Issuer            string        // Optional: issuer claim for tokens (default: idpolicy)
	NumKeys           int           // Optional: number of signing keys to generate (default: 3, max: 10)
	UpstreamTimeout   time.Duration // Optional: bound on each external call while deciding (default: 5s)
	PendingConsentTTL time.Duration // Optional: lifetime of an unanswered consent challenge (default: 10m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		RegistryFile:      os.Getenv("IDPOLICY_REGISTRY_FILE"),
		WatchRegistry:     getEnvBoolOrDefault("IDPOLICY_WATCH_REGISTRY", true),
		DatabaseFile:      getEnvOrDefault("IDPOLICY_DATABASE_FILE", "idpolicy.db"),
		Issuer:            getEnvOrDefault("IDPOLICY_ISSUER", "idpolicy"),
		NumKeys:           getEnvIntOrDefault("IDPOLICY_NUM_KEYS", 0),
		UpstreamTimeout:   getEnvDurationOrDefault("IDPOLICY_UPSTREAM_TIMEOUT", service.DefaultUpstreamTimeout),
		PendingConsentTTL: getEnvDurationOrDefault("IDPOLICY_PENDING_CONSENT_TTL", service.DefaultPendingConsentTTL),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}

	if cfg.RegistryFile == "" {
		cfg.RegistryFile = DefaultRegistryFile()
	}

	return cfg
}

// DefaultRegistryFile returns the first idpolicy/registry.yaml found on the
// XDG config search path, or where it would live under XDG_CONFIG_HOME.
func DefaultRegistryFile() string {
	if path, err := xdg.SearchConfigFile(registryConfigPath); err == nil {
		return path
	}
	return filepath.Join(xdg.ConfigHome, registryConfigPath)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
