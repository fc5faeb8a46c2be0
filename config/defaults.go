package config

import (
	"time"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
)

// Default values
const (
	DefaultBaseURL       = "https://localhost:9443"
	DefaultTenantDomain  = "carbon.super"
	DefaultServerTimeout = 15 * time.Second
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultRunTimeout    = 30 * time.Second
	DefaultContextID     = "console"
	DefaultContextTTL    = 24 * time.Hour
	DefaultSandboxAddr   = "127.0.0.1:9444"
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:      DefaultBaseURL,
			APIPath:      debugapi.DefaultAPIPath,
			TenantDomain: DefaultTenantDomain,
			Timeout:      DefaultServerTimeout,
		},
		Run: RunConfig{
			PollInterval: DefaultPollInterval,
			Timeout:      DefaultRunTimeout,
		},
		Context: ContextConfig{
			Backend: "file",
			ID:      DefaultContextID,
			TTL:     DefaultContextTTL,
		},
		Redis: *DefaultRedisConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Sandbox: SandboxConfig{
			Addr:      DefaultSandboxAddr,
			ResultTTL: 10 * time.Minute,
			RPS:       20,
			Burst:     40,
		},
	}
}
