package config

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMode represents the Redis deployment mode
type RedisMode string

const (
	// RedisModeStandalone represents a single Redis instance
	RedisModeStandalone RedisMode = "standalone"

	// RedisModeCluster represents Redis cluster mode
	RedisModeCluster RedisMode = "cluster"

	// RedisModeSentinel represents Redis sentinel mode
	RedisModeSentinel RedisMode = "sentinel"
)

// RedisConfig holds the Redis context backend configuration
type RedisConfig struct {
	// Mode specifies the Redis deployment mode
	Mode RedisMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// === Standalone Configuration ===
	// Addr is the Redis server address (host:port)
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Password for Redis authentication
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// DB is the database number (0-15)
	DB int `json:"db,omitempty" yaml:"db,omitempty"`

	// === Cluster Configuration ===
	// ClusterAddrs is the list of cluster node addresses
	ClusterAddrs []string `json:"clusterAddrs,omitempty" yaml:"clusterAddrs,omitempty"`

	// === Sentinel Configuration ===
	// MasterName is the name of the master instance
	MasterName string `json:"masterName,omitempty" yaml:"masterName,omitempty"`

	// SentinelAddrs is the list of sentinel addresses
	SentinelAddrs []string `json:"sentinelAddrs,omitempty" yaml:"sentinelAddrs,omitempty"`

	// SentinelPassword is the password for sentinel authentication
	SentinelPassword string `json:"sentinelPassword,omitempty" yaml:"sentinelPassword,omitempty"`

	// === Connection Settings ===
	PoolSize     int           `json:"poolSize,omitempty" yaml:"poolSize,omitempty"`
	MaxRetries   int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	DialTimeout  time.Duration `json:"dialTimeout,omitempty" yaml:"dialTimeout,omitempty"`
	ReadTimeout  time.Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout time.Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// KeyPrefix is the prefix of every context key
	KeyPrefix string `json:"keyPrefix,omitempty" yaml:"keyPrefix,omitempty"`

	// === TLS Configuration ===
	TLSEnabled            bool `json:"tlsEnabled,omitempty" yaml:"tlsEnabled,omitempty"`
	TLSInsecureSkipVerify bool `json:"tlsInsecureSkipVerify,omitempty" yaml:"tlsInsecureSkipVerify,omitempty"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Mode:         RedisModeStandalone,
		Addr:         "localhost:6379",
		PoolSize:     4,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "idptest:ctx:",
	}
}

// LoadFromEnv loads Redis configuration from environment variables
func (c *RedisConfig) LoadFromEnv() {
	if mode := os.Getenv("REDIS_MODE"); mode != "" {
		c.Mode = RedisMode(strings.ToLower(mode))
	}

	// Standalone configuration
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			c.DB = dbNum
		}
	}

	// Cluster configuration
	if clusterAddrs := os.Getenv("REDIS_CLUSTER_ADDRS"); clusterAddrs != "" {
		c.ClusterAddrs = splitAndTrim(clusterAddrs)
	}

	// Sentinel configuration
	if masterName := os.Getenv("REDIS_MASTER_NAME"); masterName != "" {
		c.MasterName = masterName
	}
	if sentinelAddrs := os.Getenv("REDIS_SENTINEL_ADDRS"); sentinelAddrs != "" {
		c.SentinelAddrs = splitAndTrim(sentinelAddrs)
	}
	if sentinelPassword := os.Getenv("REDIS_SENTINEL_PASSWORD"); sentinelPassword != "" {
		c.SentinelPassword = sentinelPassword
	}

	// Connection settings
	if poolSize := os.Getenv("REDIS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil {
			c.PoolSize = size
		}
	}
	if maxRetries := os.Getenv("REDIS_MAX_RETRIES"); maxRetries != "" {
		if retries, err := strconv.Atoi(maxRetries); err == nil {
			c.MaxRetries = retries
		}
	}
	if dialTimeout := os.Getenv("REDIS_DIAL_TIMEOUT"); dialTimeout != "" {
		if timeout, err := time.ParseDuration(dialTimeout); err == nil {
			c.DialTimeout = timeout
		}
	}

	// Key prefix
	if keyPrefix := os.Getenv("REDIS_KEY_PREFIX"); keyPrefix != "" {
		c.KeyPrefix = keyPrefix
	}

	// TLS settings
	if tlsEnabled := os.Getenv("REDIS_TLS_ENABLED"); tlsEnabled != "" {
		c.TLSEnabled = strings.ToLower(tlsEnabled) == "true"
	}
	if tlsInsecure := os.Getenv("REDIS_TLS_INSECURE_SKIP_VERIFY"); tlsInsecure != "" {
		c.TLSInsecureSkipVerify = strings.ToLower(tlsInsecure) == "true"
	}
}

// Validate checks if the configuration is valid
func (c *RedisConfig) Validate() error {
	switch c.Mode {
	case RedisModeStandalone:
		if c.Addr == "" {
			return &ConfigError{Field: "addr", Message: "Redis address is required for standalone mode"}
		}
	case RedisModeCluster:
		if len(c.ClusterAddrs) == 0 {
			return &ConfigError{Field: "clusterAddrs", Message: "At least one cluster address is required"}
		}
	case RedisModeSentinel:
		if c.MasterName == "" {
			return &ConfigError{Field: "masterName", Message: "Master name is required for sentinel mode"}
		}
		if len(c.SentinelAddrs) == 0 {
			return &ConfigError{Field: "sentinelAddrs", Message: "At least one sentinel address is required"}
		}
	default:
		return &ConfigError{Field: "mode", Message: "Invalid Redis mode"}
	}

	if c.DB < 0 || c.DB > 15 {
		return &ConfigError{Field: "db", Message: "Database number must be between 0 and 15"}
	}
	return nil
}

// UniversalOptions converts the configuration into go-redis options.
func (c *RedisConfig) UniversalOptions() *redis.UniversalOptions {
	opts := &redis.UniversalOptions{
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}

	switch c.Mode {
	case RedisModeCluster:
		opts.Addrs = c.ClusterAddrs
	case RedisModeSentinel:
		opts.Addrs = c.SentinelAddrs
		opts.MasterName = c.MasterName
		opts.SentinelPassword = c.SentinelPassword
	default:
		opts.Addrs = []string{c.Addr}
	}

	if c.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.TLSInsecureSkipVerify, // #nosec G402 -- opt-in
		}
	}
	return opts
}

// NewClient creates the client of the configured deployment mode.
func (c *RedisConfig) NewClient() redis.UniversalClient {
	opts := c.UniversalOptions()
	switch c.Mode {
	case RedisModeCluster:
		return redis.NewClusterClient(opts.Cluster())
	case RedisModeSentinel:
		return redis.NewFailoverClient(opts.Failover())
	default:
		return redis.NewClient(opts.Simple())
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return "redis config error: " + e.Field + ": " + e.Message
}
