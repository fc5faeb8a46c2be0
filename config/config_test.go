package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIBase(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "https://is.example.com/"
	cfg.Server.APIPath = "/api/server/v1/"
	assert.Equal(t, "https://is.example.com/api/server/v1", cfg.APIBase())
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Server.SessionCookie = "commonAuthId=abc123; JSESSIONID=xyz"
	cfg.Sandbox.Secret = "a-very-long-sandbox-secret-value-0001"
	cfg.Redis.Password = "redis-pass"

	out := cfg.String()
	assert.Contains(t, out, "commonAuthId=********; JSESSIONID=********")
	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "a-very-long-sandbox-secret-value-0001")
	assert.NotContains(t, out, "redis.password", "redis settings only show for the redis backend")

	cfg.Context.Backend = "redis"
	out = cfg.String()
	assert.Contains(t, out, "redis.addr")
	assert.NotContains(t, out, "redis-pass")
}

func TestMask(t *testing.T) {
	assert.Empty(t, mask(""))
	assert.Equal(t, "********", mask("x"))
	assert.Empty(t, maskCookie(""))
	assert.Equal(t, "a=********", maskCookie("a=1"))
}
