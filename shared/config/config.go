package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            string `yaml:"port" env:"PORT"`
	StaticDir       string `yaml:"static_dir"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"GOOGLE_CLOUD_API_KEY"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GOOGLE_API_KEY"`
	Model        string `yaml:"model" env:"GEMINI_MODEL"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url" env:"DATABASE_URL"`
	Driver string `yaml:"driver" env:"DATABASE_DRIVER"` // "sqlite" or "postgres"; inferred from URL when empty
}

// ProxyConfig describes the optional transcript proxy. URL takes precedence over
// Username/Password, which select the Webshare rotating endpoint.
type ProxyConfig struct {
	Username      string `yaml:"username" env:"PROXY_USERNAME"`
	Password      string `yaml:"password" env:"PROXY_PASSWORD"`
	URL           string `yaml:"url" env:"PROXY_URL"`
	CheckSchedule string `yaml:"check_schedule" env:"PROXY_CHECK_SCHEDULE"`
}

// Enabled reports whether any proxy route is configured.
func (p ProxyConfig) Enabled() bool {
	return p.URL != "" || (p.Username != "" && p.Password != "")
}

// scheduleParser accepts the same six-field expressions as the scheduler.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile, explicit := os.LookupEnv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Environment-only deployment
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}

	fill(&c.Server.Port, "PORT")
	fill(&c.YouTube.APIKey, "GOOGLE_CLOUD_API_KEY")
	fill(&c.AI.GeminiAPIKey, "GOOGLE_API_KEY")
	fill(&c.AI.Model, "GEMINI_MODEL")
	fill(&c.Database.URL, "DATABASE_URL")
	fill(&c.Database.Driver, "DATABASE_DRIVER")
	fill(&c.Proxy.Username, "PROXY_USERNAME")
	fill(&c.Proxy.Password, "PROXY_PASSWORD")
	fill(&c.Proxy.URL, "PROXY_URL")
	fill(&c.Proxy.CheckSchedule, "PROXY_CHECK_SCHEDULE")
	fill(&c.Logging.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownSeconds <= 0 {
		c.Server.ShutdownSeconds = 10
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GOOGLE_API_KEY or ai.gemini_api_key)")
	}
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YouTube Data API key is required (set GOOGLE_CLOUD_API_KEY or youtube.api_key)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL or database.url)")
	}
	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q (use sqlite or postgres)", c.Database.Driver)
	}
	if (c.Proxy.Username == "") != (c.Proxy.Password == "") {
		return fmt.Errorf("proxy username and password must be set together (PROXY_USERNAME, PROXY_PASSWORD)")
	}
	if c.Proxy.CheckSchedule != "" {
		if _, err := scheduleParser.Parse(c.Proxy.CheckSchedule); err != nil {
			return fmt.Errorf("invalid proxy check schedule %q: %w", c.Proxy.CheckSchedule, err)
		}
	}
	return nil
}
