package model

import "time"

// Config is the application configuration assembled from defaults, the
// config file, PRIMORDIA_* environment variables and CLI flags. The
// core algorithms read none of it except Limits, which the manager
// passes to the structural algorithms at construction time.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Limits      LimitsConfig      `yaml:"limits" json:"limits"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
}

// HTTPConfig governs URL ingestion.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"userAgent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"maxBodyBytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" json:"insecureTls"`
	RespectRobots bool          `yaml:"respect_robots" json:"respectRobots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" json:"httpProxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" json:"httpsProxy,omitempty"`
}

// CacheConfig governs the layered report cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memoryTtl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"diskTtl"`
}

// LimitsConfig bounds structural traversal so adversarial nesting
// cannot exhaust the stack.
type LimitsConfig struct {
	MaxDepth int `yaml:"max_depth" json:"maxDepth"`
}

// ConcurrencyConfig governs batch processing.
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" json:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig governs report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"includeFooter"`
}

// LLMConfig configures the optional explanation provider. Disabled
// when Provider is empty.
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"`
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"`
	BaseURL   string `yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"`
	MaxTokens int    `yaml:"max_tokens" json:"maxTokens"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Primordia/0.3 (+https://github.com/ltikhonov/primordia)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Limits: LimitsConfig{
			MaxDepth: 64,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
		},
	}
}
