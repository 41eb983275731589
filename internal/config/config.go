package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultManifestPath   = "configvars.yaml"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration of the configvars tool.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	ManifestPath         string        `yaml:"manifest"`
	SettingsRoot         string        `yaml:"settings_root"`
	LocalModule          string        `yaml:"local_module"`
	EnvPrefix            string        `yaml:"env_prefix"`
	LogLevel             string        `yaml:"log_level"`
	Port                 string        `yaml:"port"`
	Watch                bool          `yaml:"watch"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Manifest             string        `yaml:"manifest"`
	SettingsRoot         string        `yaml:"settings_root"`
	LocalModule          string        `yaml:"local_module"`
	EnvPrefix            *string       `yaml:"env_prefix"`
	LogLevel             string        `yaml:"log_level"`
	Port                 string        `yaml:"port"`
	Watch                *bool         `yaml:"watch"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not given.
type CLIOverrides struct {
	ConfigFile     string
	ManifestPath   *string
	SettingsRoot   *string
	LocalModule    *string
	EnvPrefix      *string
	LogLevel       *string
	Port           *string
	Watch          *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	applyEnvConfig(&cfg)

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		ManifestPath:         defaultManifestPath,
		LogLevel:             defaultLogLevel,
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Manifest != "" {
		cfg.ManifestPath = yamlCfg.Manifest
	}
	if yamlCfg.SettingsRoot != "" {
		cfg.SettingsRoot = yamlCfg.SettingsRoot
	}
	if yamlCfg.LocalModule != "" {
		cfg.LocalModule = yamlCfg.LocalModule
	}
	if yamlCfg.EnvPrefix != nil {
		cfg.EnvPrefix = *yamlCfg.EnvPrefix
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.Watch != nil {
		cfg.Watch = *yamlCfg.Watch
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if manifest := strings.TrimSpace(os.Getenv("CONFIGVARS_MANIFEST")); manifest != "" {
		cfg.ManifestPath = manifest
	}

	if root := strings.TrimSpace(os.Getenv("CONFIGVARS_SETTINGS_ROOT")); root != "" {
		cfg.SettingsRoot = root
	}

	if module := strings.TrimSpace(os.Getenv("CONFIGVARS_LOCAL_MODULE")); module != "" {
		cfg.LocalModule = module
	}

	if prefix, ok := os.LookupEnv("CONFIGVARS_ENV_PREFIX"); ok {
		cfg.EnvPrefix = prefix
	}

	if level := strings.TrimSpace(os.Getenv("CONFIGVARS_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if port := strings.TrimSpace(os.Getenv("CONFIGVARS_PORT")); port != "" {
		cfg.Port = port
	}

	if watch := strings.TrimSpace(os.Getenv("CONFIGVARS_WATCH")); watch != "" {
		if value, err := strconv.ParseBool(watch); err == nil {
			cfg.Watch = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("CONFIGVARS_RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("CONFIGVARS_RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.ManifestPath != nil && *overrides.ManifestPath != "" {
		cfg.ManifestPath = *overrides.ManifestPath
	}

	if overrides.SettingsRoot != nil && *overrides.SettingsRoot != "" {
		cfg.SettingsRoot = *overrides.SettingsRoot
	}

	if overrides.LocalModule != nil && *overrides.LocalModule != "" {
		cfg.LocalModule = *overrides.LocalModule
	}

	if overrides.EnvPrefix != nil {
		cfg.EnvPrefix = *overrides.EnvPrefix
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	if strings.TrimSpace(cfg.ManifestPath) == "" {
		return fmt.Errorf("manifest path cannot be empty")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	return nil
}
