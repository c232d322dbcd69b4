package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete factlight configuration
type Config struct {
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Extract      ExtractConfig      `mapstructure:"extract" yaml:"extract"`
	Annotate     AnnotateConfig     `mapstructure:"annotate" yaml:"annotate"`
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
}

// LLMConfig configures the model client shared by extraction and annotation
type LLMConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider" validate:"oneof=gemini google openai anthropic claude ollama"`
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty" validate:"required_unless=Provider ollama"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout" validate:"min=0"` // seconds
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
}

// ExtractConfig configures claim extraction
type ExtractConfig struct {
	Mode        Mode   `mapstructure:"mode" yaml:"mode" validate:"oneof=markup structured"`
	OpenMarker  string `mapstructure:"open_marker" yaml:"open_marker" validate:"required"`
	CloseMarker string `mapstructure:"close_marker" yaml:"close_marker" validate:"required,nefield=OpenMarker"`
}

// AnnotateConfig configures verdict annotation
type AnnotateConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"` // json: structured verdicts, text: truth/harm/explanation lines
}

// HTTPConfig configures input fetching (web pages, transcripts)
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"gt=0"`
	HTTPProxy      string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy     string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy        string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
	RespectRobots  bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	TranscriptURL  string        `mapstructure:"transcript_url" yaml:"transcript_url" validate:"url"`
	TranscriptLang string        `mapstructure:"transcript_lang" yaml:"transcript_lang"`
}

// CacheConfig configures the fetched-input cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// ConcurrencyConfig configures parallel verdict fetching
type ConcurrencyConfig struct {
	VerdictWorkers int `mapstructure:"verdict_workers" yaml:"verdict_workers" validate:"min=1"`
}

// RateLimitingConfig throttles outbound model and fetch requests
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size" validate:"min=1"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`
	Title      string `mapstructure:"title" yaml:"title"`
	IncludeCSS bool   `mapstructure:"include_css" yaml:"include_css"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cacheDir := ".factlight/cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".factlight", "cache")
	}

	return &Config{
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-1.5-flash",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Extract: ExtractConfig{
			Mode:        ModeMarkup,
			OpenMarker:  "<claim>",
			CloseMarker: "</claim>",
		},
		Annotate: AnnotateConfig{
			Format: "json",
		},
		HTTP: HTTPConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "factlight/0.1 (+https://github.com/ppiankov/factlight)",
			MaxBodyBytes:   2_000_000,
			RespectRobots:  true,
			TranscriptURL:  "https://www.youtube.com/api/timedtext",
			TranscriptLang: "en",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			VerdictWorkers: 1,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Title:      "factlight",
			IncludeCSS: true,
		},
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural errors
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
