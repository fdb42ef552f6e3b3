// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. YTLISTS_CLIENT_ID.
const EnvPrefix = "YTLISTS"

// Config holds all application configuration.
type Config struct {
	// ClientID is the OAuth client id registered with Google.
	ClientID string `mapstructure:"client_id"`
	// RedirectURI must match a redirect URI registered for the client.
	RedirectURI string `mapstructure:"redirect_uri"`
	// AuthURL overrides Google's authorization endpoint.
	AuthURL string `mapstructure:"auth_url"`
	// UserInfoURL is the profile endpoint.
	UserInfoURL string `mapstructure:"userinfo_url"`
	// APIEndpoint overrides the Data API base URL (tests, proxies).
	APIEndpoint string `mapstructure:"api_endpoint"`

	// StorePath is the JSON document holding persisted records.
	StorePath string `mapstructure:"store_path"`
	// WatchStore publishes changes other processes make to StorePath.
	WatchStore bool `mapstructure:"watch_store"`
	// RedisAddr enables cross-process change notification over Redis pub/sub.
	RedisAddr string `mapstructure:"redis_addr"`
	// RedisChannel is the pub/sub channel for change events.
	RedisChannel string `mapstructure:"redis_channel"`

	// HTTPTimeout bounds every request to Google.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// DataAPIRPS limits Data API requests per second (0 = unlimited).
	DataAPIRPS float64 `mapstructure:"data_api_rps"`
	// DataAPIBurst is the Data API token bucket size.
	DataAPIBurst int `mapstructure:"data_api_burst"`
	// MaxPages bounds subscription pagination (0 = unbounded).
	MaxPages int `mapstructure:"max_pages"`
	// RateLimits overrides the request rate of individual hosts.
	RateLimits []HostRate `mapstructure:"rate_limits"`

	// LogLevel is a zerolog level name.
	LogLevel string `mapstructure:"log_level"`
	// LogJSON switches from console to JSON log output.
	LogJSON bool `mapstructure:"log_json"`

	// ListenAddr is where `serve` binds the local API.
	ListenAddr string `mapstructure:"listen_addr"`
}

// HostRate limits requests to one host. An RPS of 0 leaves it unlimited.
//
// It is a list entry rather than a map key because host names contain dots,
// which viper treats as key separators.
type HostRate struct {
	Host string  `mapstructure:"host"`
	RPS  float64 `mapstructure:"rps"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		RedirectURI:  "http://localhost:5173",
		UserInfoURL:  "https://www.googleapis.com/oauth2/v1/userinfo?alt=json",
		StorePath:    defaultStorePath(),
		RedisChannel: "ytlists:storage",
		HTTPTimeout:  30 * time.Second,
		DataAPIRPS:   10,
		DataAPIBurst: 10,
		MaxPages:     0,
		LogLevel:     "info",
		ListenAddr:   "127.0.0.1:8080",
	}
}

// Load reads configuration with priority env > config file > defaults.
//
// path selects the config file. When empty, YTLISTS_CONFIG is used, then
// ytlists.json in the working directory, then ~/.config/ytlists/ytlists.json.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	return load(afero.NewOsFs(), path)
}

func load(fsys afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)

	d := DefaultConfig()
	v.SetDefault("client_id", d.ClientID)
	v.SetDefault("redirect_uri", d.RedirectURI)
	v.SetDefault("auth_url", d.AuthURL)
	v.SetDefault("userinfo_url", d.UserInfoURL)
	v.SetDefault("api_endpoint", d.APIEndpoint)
	v.SetDefault("store_path", d.StorePath)
	v.SetDefault("watch_store", d.WatchStore)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("redis_channel", d.RedisChannel)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("data_api_rps", d.DataAPIRPS)
	v.SetDefault("data_api_burst", d.DataAPIBurst)
	v.SetDefault("max_pages", d.MaxPages)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_json", d.LogJSON)
	v.SetDefault("listen_addr", d.ListenAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ytlists")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ytlists"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.StorePath = ExpandHome(cfg.StorePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must be non-negative")
	}
	if c.DataAPIRPS < 0 {
		return fmt.Errorf("data_api_rps must be non-negative")
	}
	if c.DataAPIBurst < 1 {
		return fmt.Errorf("data_api_burst must be at least 1")
	}
	for _, r := range c.RateLimits {
		if r.Host == "" || r.RPS < 0 {
			return fmt.Errorf("rate_limits: invalid entry %+v", r)
		}
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path must be set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ytlists.state.json"
	}
	return filepath.Join(home, ".local", "share", "ytlists", "state.json")
}
