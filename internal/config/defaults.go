package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 90 * time.Second
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 16 << 10
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Model = "gemini-2.0-flash"
		default:
			cfg.LLM.Model = "gpt-4o-mini"
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}

	if cfg.Sources.MinExtractLength == 0 {
		cfg.Sources.MinExtractLength = 50
	}
	applyWikiDefaults(&cfg.Sources.KoWiki, "https://ko.wikipedia.org")
	applyWikiDefaults(&cfg.Sources.EnWiki, "https://en.wikipedia.org")
	if cfg.Sources.Serper.Endpoint == "" {
		cfg.Sources.Serper.Endpoint = "https://google.serper.dev/search"
	}
	if cfg.Sources.Serper.Timeout == 0 {
		cfg.Sources.Serper.Timeout = 7 * time.Second
	}
	if cfg.Sources.Serper.RatePerSecond == 0 {
		cfg.Sources.Serper.RatePerSecond = 5
	}

	if cfg.Limits.DailyQuota == 0 {
		cfg.Limits.DailyQuota = 100
	}
	if cfg.Limits.DuplicateWindow == 0 {
		cfg.Limits.DuplicateWindow = 60 * time.Second
	}
	if cfg.Limits.Timezone == "" {
		cfg.Limits.Timezone = "Asia/Seoul"
	}
	if cfg.Limits.Store == "" {
		cfg.Limits.Store = "memory"
	}
	if cfg.Limits.DatabasePath == "" {
		cfg.Limits.DatabasePath = "/usr/local/var/gunggeum/data/limits.db"
	}
	if cfg.Limits.BurstPerMinute == 0 {
		cfg.Limits.BurstPerMinute = 5
	}

	if cfg.Pipeline.MaxSourceChars == 0 {
		cfg.Pipeline.MaxSourceChars = 2000
	}
	if cfg.Pipeline.MaxQuestions == 0 {
		cfg.Pipeline.MaxQuestions = 3
	}
	if cfg.Pipeline.MaxContextChars == 0 {
		cfg.Pipeline.MaxContextChars = 6000
	}

	if cfg.Logs.Dir == "" {
		cfg.Logs.Dir = "/usr/local/var/gunggeum/logs"
	}
	if cfg.Logs.RetentionDays == 0 {
		cfg.Logs.RetentionDays = 14
	}
	if cfg.Logs.TailLines == 0 {
		cfg.Logs.TailLines = 200
	}
}

func applyWikiDefaults(w *WikiConfig, baseURL string) {
	if w.BaseURL == "" {
		w.BaseURL = baseURL
	}
	if w.Mode == "" {
		w.Mode = "api"
	}
	if w.Timeout == 0 {
		w.Timeout = 5 * time.Second
	}
	if w.RatePerSecond == 0 {
		w.RatePerSecond = 10
	}
}
