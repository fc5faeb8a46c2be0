// Package config provides the configuration of the idptest tool.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete tool configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Context ContextConfig `json:"context" yaml:"context"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Browser BrowserConfig `json:"browser" yaml:"browser"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	I18n    I18nConfig    `json:"i18n" yaml:"i18n"`
	Sandbox SandboxConfig `json:"sandbox" yaml:"sandbox"`
}

// ServerConfig locates the identity server console API.
type ServerConfig struct {
	// BaseURL is the origin of the identity server, e.g. https://localhost:9443
	BaseURL string `json:"baseURL" yaml:"baseURL"`

	// APIPath is the console API prefix appended to BaseURL
	APIPath string `json:"apiPath" yaml:"apiPath"`

	// TenantDomain is used to build console paths
	TenantDomain string `json:"tenantDomain" yaml:"tenantDomain"`

	// SessionCookie is the Cookie header of an authenticated console session
	SessionCookie string `json:"sessionCookie,omitempty" yaml:"sessionCookie,omitempty"`

	// InsecureSkipVerify disables TLS verification for self-signed servers
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`

	// Timeout bounds every API request
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RunConfig controls popup completion detection.
type RunConfig struct {
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
}

// ContextConfig selects where execution contexts persist their state.
type ContextConfig struct {
	// Backend is memory, file or redis
	Backend string `json:"backend" yaml:"backend"`

	// ID names the current execution context
	ID string `json:"id" yaml:"id"`

	// OpenerID names the context that opened the current one, if any
	OpenerID string `json:"openerID,omitempty" yaml:"openerID,omitempty"`

	// FilePath is the base path of the file backend
	FilePath string `json:"filePath,omitempty" yaml:"filePath,omitempty"`

	// TTL expires contexts in the redis backend
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// BrowserConfig selects how authorization URLs are opened.
type BrowserConfig struct {
	// Command is a shell-quoted command line; {url} marks where the URL goes.
	// Empty uses the system launcher.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// I18nConfig selects the translation catalog.
type I18nConfig struct {
	// Catalog is a YAML file overlaid on the built-in English catalog
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// SandboxConfig configures the local sandbox backend.
type SandboxConfig struct {
	Addr      string        `json:"addr" yaml:"addr"`
	Secret    string        `json:"secret,omitempty" yaml:"secret,omitempty"`
	ResultTTL time.Duration `json:"resultTTL" yaml:"resultTTL"`
	RPS       float64       `json:"rps" yaml:"rps"`
	Burst     int           `json:"burst" yaml:"burst"`
}

// APIBase returns the absolute console API URL.
func (c *Config) APIBase() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/" + strings.Trim(c.Server.APIPath, "/")
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	var b strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&b, "%-28s %v\n", key, value)
	}

	line("server.baseURL", c.Server.BaseURL)
	line("server.apiPath", c.Server.APIPath)
	line("server.tenantDomain", c.Server.TenantDomain)
	line("server.sessionCookie", maskCookie(c.Server.SessionCookie))
	line("server.insecureSkipVerify", c.Server.InsecureSkipVerify)
	line("server.timeout", c.Server.Timeout)
	line("run.pollInterval", c.Run.PollInterval)
	line("run.timeout", c.Run.Timeout)
	line("context.backend", c.Context.Backend)
	line("context.id", c.Context.ID)
	line("context.openerID", c.Context.OpenerID)
	line("context.filePath", c.Context.FilePath)
	line("context.ttl", c.Context.TTL)
	if c.Context.Backend == "redis" {
		line("redis.mode", c.Redis.Mode)
		line("redis.addr", c.Redis.Addr)
		line("redis.password", mask(c.Redis.Password))
		line("redis.db", c.Redis.DB)
		line("redis.keyPrefix", c.Redis.KeyPrefix)
	}
	line("browser.command", c.Browser.Command)
	line("logging.level", c.Logging.Level)
	line("i18n.catalog", c.I18n.Catalog)
	line("sandbox.addr", c.Sandbox.Addr)
	line("sandbox.secret", mask(c.Sandbox.Secret))
	line("sandbox.resultTTL", c.Sandbox.ResultTTL)
	line("sandbox.rps", c.Sandbox.RPS)
	line("sandbox.burst", c.Sandbox.Burst)
	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// maskCookie keeps the cookie names and hides their values.
func maskCookie(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ";")
	for i, part := range parts {
		name, _, _ := strings.Cut(strings.TrimSpace(part), "=")
		parts[i] = name + "=********"
	}
	return strings.Join(parts, "; ")
}
