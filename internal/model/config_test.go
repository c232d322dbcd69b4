package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_ValidWithKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.LLM.APIKey = "" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"unknown mode", func(c *Config) { c.Extract.Mode = "regex" }},
		{"same markers", func(c *Config) { c.Extract.CloseMarker = c.Extract.OpenMarker }},
		{"zero workers", func(c *Config) { c.Concurrency.VerdictWorkers = 0 }},
		{"bad format", func(c *Config) { c.Annotate.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.APIKey = "test-key"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_OllamaNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1"
	assert.NoError(t, cfg.Validate())
}
