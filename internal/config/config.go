// Package config provides configuration loading and structs for the gunggeum server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Sources  SourcesConfig  `yaml:"sources"`
	Limits   LimitsConfig   `yaml:"limits"`
	Guard    GuardConfig    `yaml:"guard"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logs     LogsConfig     `yaml:"logs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// LLMConfig selects and configures the text-transform provider.
type LLMConfig struct {
	Provider string        `yaml:"provider"` // openai, gemini or mock
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WikiConfig configures one Wikipedia source.
type WikiConfig struct {
	Enabled        *bool         `yaml:"enabled"`
	BaseURL        string        `yaml:"base_url"`
	Mode           string        `yaml:"mode"` // api or html
	Timeout        time.Duration `yaml:"timeout"`
	TranslateTitle bool          `yaml:"translate_title"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
}

// EnabledOrDefault reports whether the source is enabled; defaults to true when unset.
func (w *WikiConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// SerperConfig configures the web search source.
type SerperConfig struct {
	Enabled       *bool         `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	EnrichPages   bool          `yaml:"enrich_pages"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

// EnabledOrDefault reports whether web search is enabled; defaults to true when unset.
func (s *SerperConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// SourcesConfig holds the fallback chain settings.
type SourcesConfig struct {
	MinExtractLength int          `yaml:"min_extract_length"`
	KoWiki           WikiConfig   `yaml:"ko_wiki"`
	EnWiki           WikiConfig   `yaml:"en_wiki"`
	Serper           SerperConfig `yaml:"serper"`
}

// LimitsConfig holds quota and duplicate-suppression settings.
type LimitsConfig struct {
	DailyQuota      int           `yaml:"daily_quota"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
	Timezone        string        `yaml:"timezone"`
	Store           string        `yaml:"store"` // memory, sqlite or redis
	DatabasePath    string        `yaml:"database_path"`
	RedisURL        string        `yaml:"redis_url"`
	BurstPerMinute  int           `yaml:"burst_per_minute"`
}

// GuardConfig holds abuse gate settings.
type GuardConfig struct {
	BannedWordsPath string `yaml:"banned_words_path"`
	WatchWordList   *bool  `yaml:"watch_word_list"`
}

// WatchOrDefault reports whether the word list file is hot reloaded; defaults to true when unset.
func (g *GuardConfig) WatchOrDefault() bool {
	if g.WatchWordList != nil {
		return *g.WatchWordList
	}
	return true
}

// PipelineConfig holds summarization and answering budgets (in characters).
type PipelineConfig struct {
	MaxSourceChars  int `yaml:"max_source_chars"`
	MaxQuestions    int `yaml:"max_questions"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// LogsConfig holds the daily audit log settings.
type LogsConfig struct {
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
	Secret        string `yaml:"secret"`
	TailLines     int    `yaml:"tail_lines"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Limits.DatabasePath = expandPath(cfg.Limits.DatabasePath, configDir)
	cfg.Guard.BannedWordsPath = expandPath(cfg.Guard.BannedWordsPath, configDir)
	cfg.Logs.Dir = expandPath(cfg.Logs.Dir, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides secrets and the listen port from the environment.
// Secrets are normally kept out of the YAML file.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" && cfg.Sources.Serper.APIKey == "" {
		cfg.Sources.Serper.APIKey = v
	}
	if v := os.Getenv("LOG_SECRET"); v != "" && cfg.Logs.Secret == "" {
		cfg.Logs.Secret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" && cfg.Limits.RedisURL == "" {
		cfg.Limits.RedisURL = v
	}
}

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Limits.Store {
	case "memory", "sqlite":
	case "redis":
		if c.Limits.RedisURL == "" {
			return fmt.Errorf("limits.store is redis but no redis_url or REDIS_URL is set")
		}
	default:
		return fmt.Errorf("unknown limits store %q", c.Limits.Store)
	}
	if _, err := time.LoadLocation(c.Limits.Timezone); err != nil {
		return fmt.Errorf("invalid limits.timezone %q: %w", c.Limits.Timezone, err)
	}
	for _, w := range []WikiConfig{c.Sources.KoWiki, c.Sources.EnWiki} {
		if w.Mode != "api" && w.Mode != "html" {
			return fmt.Errorf("unknown wikipedia mode %q", w.Mode)
		}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
