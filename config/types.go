package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TraceMoe TraceMoeConfig `mapstructure:"tracemoe"`
	Search   SearchConfig   `mapstructure:"search"`
	Download DownloadConfig `mapstructure:"download"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TraceMoeConfig holds trace.moe API connection details
type TraceMoeConfig struct {
	URL              string        `mapstructure:"url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryRateLimited bool          `mapstructure:"retry_rate_limited"`
	// MaxRetries of 0 retries rate-limited requests until they succeed.
	MaxRetries int    `mapstructure:"max_retries"`
	UserAgent  string `mapstructure:"user_agent"`
}

// SearchConfig contains default search options
type SearchConfig struct {
	CutBorders  bool `mapstructure:"cut_borders"`
	AnilistInfo bool `mapstructure:"anilist_info"`
	// Limit caps the number of printed results; 0 prints all.
	Limit int `mapstructure:"limit"`
}

// DownloadConfig contains preview download settings
type DownloadConfig struct {
	Directory   string `mapstructure:"directory"`
	Size        string `mapstructure:"size"`
	Mute        bool   `mapstructure:"mute"`
	Concurrency int    `mapstructure:"concurrency"`
}

// FilterConfig contains the default filter and named presets
type FilterConfig struct {
	Default string            `mapstructure:"default"`
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
