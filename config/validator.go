package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config validation error: %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateContext()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateSandbox()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateServer() ValidationErrors {
	var errors ValidationErrors

	u, err := url.Parse(c.Server.BaseURL)
	switch {
	case c.Server.BaseURL == "":
		errors = append(errors, ValidationError{Field: "Server.BaseURL", Message: "base URL is required"})
	case err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https"):
		errors = append(errors, ValidationError{
			Field:   "Server.BaseURL",
			Message: "must be an absolute http(s) URL",
			Value:   c.Server.BaseURL,
		})
	}

	if c.Server.APIPath != "" && !strings.HasPrefix(c.Server.APIPath, "/") {
		errors = append(errors, ValidationError{
			Field:   "Server.APIPath",
			Message: "must start with /",
			Value:   c.Server.APIPath,
		})
	}

	if c.Server.TenantDomain == "" || strings.Contains(c.Server.TenantDomain, "/") {
		errors = append(errors, ValidationError{
			Field:   "Server.TenantDomain",
			Message: "tenant domain is required and must not contain /",
			Value:   c.Server.TenantDomain,
		})
	}

	if c.Server.Timeout <= 0 || c.Server.Timeout > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "Server.Timeout",
			Message: "must be between 0 and 5m",
			Value:   c.Server.Timeout,
		})
	}

	return errors
}

func (c *Config) validateRun() ValidationErrors {
	var errors ValidationErrors

	if c.Run.PollInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Run.PollInterval",
			Message: "must be positive",
			Value:   c.Run.PollInterval,
		})
	}
	if c.Run.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Run.Timeout",
			Message: "must be positive",
			Value:   c.Run.Timeout,
		})
	} else if c.Run.PollInterval > c.Run.Timeout {
		errors = append(errors, ValidationError{
			Field:   "Run.PollInterval",
			Message: "must not exceed Run.Timeout",
			Value:   c.Run.PollInterval,
		})
	}

	return errors
}

func (c *Config) validateContext() ValidationErrors {
	var errors ValidationErrors

	switch sessionctx.StorageBackend(c.Context.Backend) {
	case sessionctx.StorageBackendMemory, sessionctx.StorageBackendFile:
	case sessionctx.StorageBackendRedis:
		if err := c.Redis.Validate(); err != nil {
			errors = append(errors, ValidationError{
				Field:   "Redis",
				Message: err.Error(),
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "Context.Backend",
			Message: "must be memory, file or redis",
			Value:   c.Context.Backend,
		})
	}

	if c.Context.ID == "" {
		errors = append(errors, ValidationError{Field: "Context.ID", Message: "context id is required"})
	}
	if c.Context.OpenerID != "" && c.Context.OpenerID == c.Context.ID {
		errors = append(errors, ValidationError{
			Field:   "Context.OpenerID",
			Message: "must differ from Context.ID",
			Value:   c.Context.OpenerID,
		})
	}
	if c.Context.TTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "Context.TTL",
			Message: "cannot be negative",
			Value:   c.Context.TTL,
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "trace", "info", "warn", "warning", "error", "none", "off", "":
	default:
		errors = append(errors, ValidationError{
			Field:   "Logging.Level",
			Message: "must be debug, info, warn, error or none",
			Value:   c.Logging.Level,
		})
	}

	return errors
}

func (c *Config) validateSandbox() ValidationErrors {
	var errors ValidationErrors

	if c.Sandbox.Secret != "" && len(c.Sandbox.Secret) < 32 {
		errors = append(errors, ValidationError{
			Field:   "Sandbox.Secret",
			Message: "must be at least 32 characters",
		})
	}
	if c.Sandbox.RPS < 0 || c.Sandbox.Burst < 0 {
		errors = append(errors, ValidationError{
			Field:   "Sandbox.RPS",
			Message: "rate limits cannot be negative",
		})
	}
	if c.Sandbox.ResultTTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "Sandbox.ResultTTL",
			Message: "cannot be negative",
			Value:   c.Sandbox.ResultTTL,
		})
	}

	return errors
}
