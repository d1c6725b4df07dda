// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	BaseURL       string `yaml:"base_url"`       // public origin used to build the OAuth callback URL
	SecureCookies bool   `yaml:"secure_cookies"` // true in prod (TLS)
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"-"` // DATABASE_URL, env only
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProviderConfig struct {
	AuthorizeURL string `yaml:"authorize_url"`
	TokenURL     string `yaml:"token_url"`
	ProfileURL   string `yaml:"profile_url"`
	ClientID     string `yaml:"-"` // NAVER_CLIENT_ID, env only
	ClientSecret string `yaml:"-"` // NAVER_CLIENT_SECRET, env only
}

type SessionConfig struct {
	Secret     string        `yaml:"-"` // SESSION_SECRET, env only
	TTL        time.Duration `yaml:"ttl"`
	ProxyTTL   time.Duration `yaml:"proxy_ttl"`
	CookieName string        `yaml:"cookie_name"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Session  SessionConfig  `yaml:"session"`

	Runtime RuntimeConfig `yaml:"-"`
}

// MissingEnvError lists every required environment variable that was absent.
// Secrets never get silent defaults; startup (and the status endpoint's 500
// path) surface the full list for the operator.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// Required environment variable names.
const (
	EnvClientID      = "NAVER_CLIENT_ID"
	EnvClientSecret  = "NAVER_CLIENT_SECRET"
	EnvSessionSecret = "SESSION_SECRET"
	EnvDatabaseURL   = "DATABASE_URL"
)

// LoadConfig reads the YAML file for non-secret settings and the process
// environment for every credential. All missing env names are collected and
// reported together rather than failing on the first one.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 7 * 24 * time.Hour
	}
	if cfg.Session.ProxyTTL <= 0 {
		cfg.Session.ProxyTTL = time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "page_session"
	}
	if cfg.Provider.AuthorizeURL == "" {
		cfg.Provider.AuthorizeURL = "https://nid.naver.com/oauth2.0/authorize"
	}
	if cfg.Provider.TokenURL == "" {
		cfg.Provider.TokenURL = "https://nid.naver.com/oauth2.0/token"
	}
	if cfg.Provider.ProfileURL == "" {
		cfg.Provider.ProfileURL = "https://openapi.naver.com/v1/nid/me"
	}

	var missing []string
	cfg.Provider.ClientID = requireEnv(EnvClientID, &missing)
	cfg.Provider.ClientSecret = requireEnv(EnvClientSecret, &missing)
	cfg.Session.Secret = requireEnv(EnvSessionSecret, &missing)
	cfg.Database.URL = requireEnv(EnvDatabaseURL, &missing)
	if len(missing) > 0 {
		return nil, &MissingEnvError{Names: missing}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func requireEnv(name string, missing *[]string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		*missing = append(*missing, name)
	}
	return v
}

// CallbackURL is the fixed redirect target registered with the provider.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/auth/naver/callback"
}
