package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port          string       `koanf:"port"`
	GinMode       string       `koanf:"gin_mode"`
	DatabaseURL   string       `koanf:"database_url"`
	SessionSecret string       `koanf:"session_secret"`
	SiteURL       string       `koanf:"site_url"`
	LogLevel      string       `koanf:"log_level"`
	ItemsPerPage  int          `koanf:"items_per_page"`
	Google        GoogleConfig `koanf:"google"`
}

type GoogleConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// Default returns the local development settings.
func Default() Config {
	return Config{
		Port:          "8080",
		GinMode:       "debug",
		DatabaseURL:   "sqlite://pars_golf.db",
		SessionSecret: "secret_key_change_me",
		SiteURL:       "http://localhost:8080",
		LogLevel:      "info",
		ItemsPerPage:  20,
	}
}

// Load 读取配置：默认值 -> TOML 配置文件（可选） -> 环境变量
// path 为空时使用 CONFIG_FILE 环境变量
func Load(path string) (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, fmt.Errorf("error unmarshaling config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Port, "PORT")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.SiteURL, "SITE_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")

	if v := os.Getenv("ITEMS_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: ITEMS_PER_PAGE=%q", ErrInvalidConfig, v)
		}
		cfg.ItemsPerPage = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.ItemsPerPage <= 0 {
		return fmt.Errorf("%w: items_per_page must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%w: database_url is required", ErrInvalidConfig)
	}
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidConfig)
	}
	return nil
}

// GoogleEnabled reports whether Google login can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
