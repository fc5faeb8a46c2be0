package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigLoader handles loading configuration from various sources
type ConfigLoader struct {
	envPrefix   string
	configPaths []string
	envFiles    []string
	// explicitEnv is set when env files were named by the operator, whose
	// absence is then an error.
	explicitEnv bool
}

// NewConfigLoader creates a new configuration loader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		envPrefix:   "IDPTEST_",
		configPaths: getDefaultConfigPaths(),
		envFiles:    []string{".env"},
	}
}

// WithConfigFile puts path first in the configuration file search.
func (l *ConfigLoader) WithConfigFile(path string) *ConfigLoader {
	if path != "" {
		l.configPaths = append([]string{path}, l.configPaths...)
	}
	return l
}

// WithEnvFiles replaces the .env files read before the environment.
func (l *ConfigLoader) WithEnvFiles(paths ...string) *ConfigLoader {
	if len(paths) > 0 {
		l.envFiles = paths
		l.explicitEnv = true
	}
	return l
}

// getDefaultConfigPaths returns default configuration file paths to check
func getDefaultConfigPaths() []string {
	paths := []string{
		"idptest.yaml",
		"idptest.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "idptest", "config.yaml"))
	}
	return paths
}

// Load loads configuration from all available sources: defaults, the first
// configuration file found, .env files and the environment, in that order.
func (l *ConfigLoader) Load() (*Config, error) {
	config := Default()

	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}

	if err := l.LoadFromFile(config); err != nil {
		return nil, err
	}

	l.LoadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadEnvFiles reads .env files into the process environment. Variables
// already set win.
func (l *ConfigLoader) loadEnvFiles() error {
	for _, path := range l.envFiles {
		err := godotenv.Load(path)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.ErrNotExist) && !l.explicitEnv {
			continue
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile overlays the first configuration file found onto config.
// Finding no file is not an error.
func (l *ConfigLoader) LoadFromFile(config *Config) error {
	searchPaths := l.configPaths

	// Check for config file in environment variable
	if envPath := os.Getenv(l.envPrefix + "CONFIG_FILE"); envPath != "" {
		searchPaths = append([]string{envPath}, searchPaths...)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return l.loadFile(path, config)
		}
	}
	return nil
}

// loadFile decodes a YAML file onto config; keys absent from the file keep
// their current values.
func (l *ConfigLoader) loadFile(path string, config *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension: %s", ext)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func (l *ConfigLoader) LoadFromEnv(config *Config) {
	// Server configuration
	l.loadEnvString(&config.Server.BaseURL, "SERVER_BASE_URL", "BASE_URL")
	l.loadEnvString(&config.Server.APIPath, "SERVER_API_PATH", "API_PATH")
	l.loadEnvString(&config.Server.TenantDomain, "SERVER_TENANT_DOMAIN", "TENANT_DOMAIN")
	l.loadEnvString(&config.Server.SessionCookie, "SERVER_SESSION_COOKIE", "SESSION_COOKIE")
	l.loadEnvBool(&config.Server.InsecureSkipVerify, "SERVER_INSECURE_SKIP_VERIFY", "INSECURE_SKIP_VERIFY")
	l.loadEnvDuration(&config.Server.Timeout, "SERVER_TIMEOUT")

	// Run configuration
	l.loadEnvDuration(&config.Run.PollInterval, "RUN_POLL_INTERVAL", "POLL_INTERVAL")
	l.loadEnvDuration(&config.Run.Timeout, "RUN_TIMEOUT")

	// Context configuration
	l.loadEnvString(&config.Context.Backend, "CONTEXT_BACKEND")
	l.loadEnvString(&config.Context.ID, "CONTEXT_ID")
	l.loadEnvString(&config.Context.OpenerID, "CONTEXT_OPENER_ID", "OPENER_ID")
	l.loadEnvString(&config.Context.FilePath, "CONTEXT_FILE_PATH")
	l.loadEnvDuration(&config.Context.TTL, "CONTEXT_TTL")

	// Browser, logging and translations
	l.loadEnvString(&config.Browser.Command, "BROWSER_COMMAND", "BROWSER")
	l.loadEnvString(&config.Logging.Level, "LOGGING_LEVEL", "LOG_LEVEL")
	l.loadEnvString(&config.I18n.Catalog, "I18N_CATALOG")

	// Sandbox
	l.loadEnvString(&config.Sandbox.Addr, "SANDBOX_ADDR")
	l.loadEnvString(&config.Sandbox.Secret, "SANDBOX_SECRET")
	l.loadEnvDuration(&config.Sandbox.ResultTTL, "SANDBOX_RESULT_TTL")
	l.loadEnvFloat(&config.Sandbox.RPS, "SANDBOX_RPS")
	l.loadEnvInt(&config.Sandbox.Burst, "SANDBOX_BURST")

	// Redis configuration (already handled by its own LoadFromEnv)
	config.Redis.LoadFromEnv()
}

// Helper methods for environment variable loading

// lookup returns the first non-empty value of keys, prefixed keys first.
func (l *ConfigLoader) lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if value := os.Getenv(l.envPrefix + key); value != "" {
			return value, true
		}
		// Try without prefix
		if value := os.Getenv(key); value != "" {
			return value, true
		}
	}
	return "", false
}

func (l *ConfigLoader) loadEnvString(target *string, keys ...string) {
	if value, ok := l.lookup(keys...); ok {
		*target = value
	}
}

func (l *ConfigLoader) loadEnvBool(target *bool, keys ...string) {
	if value, ok := l.lookup(keys...); ok {
		*target = strings.ToLower(value) == "true" || value == "1"
	}
}

func (l *ConfigLoader) loadEnvInt(target *int, keys ...string) {
	if value, ok := l.lookup(keys...); ok {
		if i, err := strconv.Atoi(value); err == nil {
			*target = i
		}
	}
}

func (l *ConfigLoader) loadEnvFloat(target *float64, keys ...string) {
	if value, ok := l.lookup(keys...); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			*target = f
		}
	}
}

func (l *ConfigLoader) loadEnvDuration(target *time.Duration, keys ...string) {
	if value, ok := l.lookup(keys...); ok {
		if d, err := time.ParseDuration(value); err == nil {
			*target = d
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// SaveToFile writes the configuration as YAML with owner-only permissions.
func (l *ConfigLoader) SaveToFile(config *Config, path string) error {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", cleanPath, err)
	}
	if err := os.WriteFile(cleanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", cleanPath, err)
	}
	return nil
}
