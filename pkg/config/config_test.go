package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJWKSEndpoints(t *testing.T) {
	assert.Empty(t, parseJWKSEndpoints(""))

	endpoints := parseJWKSEndpoints("https://auth.example.com=https://auth.example.com/.well-known/jwks.json")
	assert.Len(t, endpoints, 1)

	endpoints = parseJWKSEndpoints("a=1, b=2")
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, endpoints)

	// Malformed pairs are dropped.
	endpoints = parseJWKSEndpoints("justanissuer,a=1")
	assert.Equal(t, map[string]string{"a": "1"}, endpoints)
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "apimesh",
		Password: "secret",
		Database: "apimesh_engine",
		SSLMode:  "require",
	}

	connStr := cfg.ConnectionString()
	assert.Contains(t, connStr, "host=db.internal")
	assert.Contains(t, connStr, "port=5433")
	assert.Contains(t, connStr, "password=secret")
	assert.Contains(t, connStr, "sslmode=require")
}

func TestValidateTLS(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.validateTLS())

	cfg = &Config{TLSCertPath: "/tmp/cert.pem"}
	assert.Error(t, cfg.validateTLS(), "cert without key must be rejected")

	cfg = &Config{TLSKeyPath: "/tmp/key.pem"}
	assert.Error(t, cfg.validateTLS(), "key without cert must be rejected")

	cfg = &Config{TLSCertPath: "/nonexistent/cert.pem", TLSKeyPath: "/nonexistent/key.pem"}
	assert.Error(t, cfg.validateTLS())
}

func TestAIConfigIsAvailable(t *testing.T) {
	assert.False(t, (&AIConfig{}).IsAvailable())
	assert.False(t, (&AIConfig{Provider: "openai", LLMModel: "gpt-4o"}).IsAvailable())
	assert.True(t, (&AIConfig{Provider: "openai", LLMModel: "gpt-4o", LLMBaseURL: "https://llm.internal/v1"}).IsAvailable())
	assert.True(t, (&AIConfig{Provider: "anthropic", LLMModel: "claude-sonnet-4-5"}).IsAvailable())
}
