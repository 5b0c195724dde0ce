package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/s0up4200/tracescene/tracemoe"
)

// EnvPrefix prefixes every environment override, e.g. TRACESCENE_TRACEMOE_API_KEY.
const EnvPrefix = "TRACESCENE"

// presetEnvPrefix names filter presets from the environment, e.g.
// TRACESCENE_FILTER_PRESETS_CONFIDENT="Similarity >= 90" defines the preset "confident".
const presetEnvPrefix = EnvPrefix + "_FILTER_PRESETS_"

// Load loads the configuration from file, environment and a .env file in the
// working directory
func Load(configPath string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	return LoadFs(afero.NewOsFs(), configPath)
}

// LoadFs loads the configuration using fs for config files
func LoadFs(fs afero.Fs, configPath string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tracescene"))
		}

		// Check /etc
		v.AddConfigPath("/etc/tracescene/")
	}

	// Read config file; every setting has a default, so only an explicit file is required
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyPresetEnv(&cfg, os.Environ())

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// trace.moe defaults
	v.SetDefault("tracemoe.url", tracemoe.DefaultBaseURL)
	v.SetDefault("tracemoe.api_key", "")
	v.SetDefault("tracemoe.timeout", 30*time.Second)
	v.SetDefault("tracemoe.retry_rate_limited", true)
	v.SetDefault("tracemoe.max_retries", 0)
	v.SetDefault("tracemoe.user_agent", tracemoe.DefaultUserAgent)

	// Search defaults
	v.SetDefault("search.cut_borders", false)
	v.SetDefault("search.anilist_info", true)
	v.SetDefault("search.limit", 0)

	// Download defaults
	v.SetDefault("download.directory", ".")
	v.SetDefault("download.size", "m")
	v.SetDefault("download.mute", false)
	v.SetDefault("download.concurrency", 4)

	// Filter defaults
	v.SetDefault("filter.default", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// applyPresetEnv merges presets from the environment into cfg. Viper cannot bind
// map entries it has never seen, so these are read directly.
func applyPresetEnv(cfg *Config, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, presetEnvPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, presetEnvPrefix))
		if name == "" {
			continue
		}
		if cfg.Filter.Presets == nil {
			cfg.Filter.Presets = make(map[string]string)
		}
		cfg.Filter.Presets[name] = value
	}
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TraceMoe.URL == "" {
		return fmt.Errorf("tracemoe.url is required")
	}
	u, err := url.Parse(cfg.TraceMoe.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("tracemoe.url must be an absolute http(s) URL: %s", cfg.TraceMoe.URL)
	}

	if cfg.TraceMoe.Timeout < 0 {
		return fmt.Errorf("tracemoe.timeout must not be negative")
	}
	if cfg.TraceMoe.MaxRetries < 0 {
		return fmt.Errorf("tracemoe.max_retries must not be negative")
	}

	if cfg.Search.Limit < 0 {
		return fmt.Errorf("search.limit must not be negative")
	}

	if _, err := tracemoe.ParseMediaSize(cfg.Download.Size); err != nil {
		return fmt.Errorf("invalid download.size: %s", cfg.Download.Size)
	}
	if cfg.Download.Concurrency < 1 {
		return fmt.Errorf("download.concurrency must be at least 1")
	}

	for name, expression := range cfg.Filter.Presets {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filter.presets.%s must not be empty", name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
