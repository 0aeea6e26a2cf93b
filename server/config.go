// ABOUTME: Server configuration from a YAML file overlaid with TANVA_* environment variables.
// ABOUTME: Enforces the security constraint that remote access requires an auth token.

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrRemoteWithoutToken = errors.New(
		"allow_remote is true but no auth token is set; refusing to start without authentication",
	)
	ErrNonLoopbackBind = errors.New(
		"bind is a non-loopback address but allow_remote is not true; set allow_remote and an auth token to allow remote access",
	)
)

// Config holds server configuration. YAML file values are overridden by
// TANVA_* environment variables.
type Config struct {
	Home          string `yaml:"home"`            // data directory (TANVA_HOME, default: ~/.tanva)
	Bind          string `yaml:"bind"`            // socket address (TANVA_BIND, default: 127.0.0.1:7870)
	AllowRemote   bool   `yaml:"allow_remote"`    // allow non-loopback connections (TANVA_ALLOW_REMOTE)
	AuthToken     string `yaml:"auth_token"`      // bearer token for API auth (TANVA_AUTH_TOKEN)
	AdminToken    string `yaml:"admin_token"`     // bearer token for admin endpoints (TANVA_ADMIN_TOKEN)
	DatabasePath  string `yaml:"database_path"`   // sqlite path (TANVA_DATABASE_PATH, default: <home>/tanva.db)
	PublicBaseURL string `yaml:"public_base_url"` // public URL for the server (TANVA_PUBLIC_BASE_URL)

	SessionTTL  time.Duration `yaml:"session_ttl"`  // idle session lifetime (TANVA_SESSION_TTL, default: 2h)
	MaxSessions int           `yaml:"max_sessions"` // open session cap (TANVA_MAX_SESSIONS, default: 64)
	DailyGrant  int           `yaml:"daily_grant"`  // free credits granted per day (TANVA_DAILY_GRANT, default: 100)

	OpenAIKey  string `yaml:"openai_key"`  // TANVA_OPENAI_API_KEY
	GeminiKey  string `yaml:"gemini_key"`  // TANVA_GEMINI_API_KEY
	KlingKey   string `yaml:"kling_key"`   // TANVA_KLING_API_KEY
	TripoKey   string `yaml:"tripo_key"`   // TANVA_TRIPO_API_KEY
	StorageURL string `yaml:"storage_url"` // TANVA_STORAGE_URL
	StorageKey string `yaml:"storage_key"` // TANVA_STORAGE_KEY
}

// LoadConfig builds a Config from an optional YAML file plus environment
// overrides, applies defaults, and validates the result. path may be empty.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Home, "TANVA_HOME")
	setString(&c.Bind, "TANVA_BIND")
	setString(&c.AuthToken, "TANVA_AUTH_TOKEN")
	setString(&c.AdminToken, "TANVA_ADMIN_TOKEN")
	setString(&c.DatabasePath, "TANVA_DATABASE_PATH")
	setString(&c.PublicBaseURL, "TANVA_PUBLIC_BASE_URL")
	setString(&c.OpenAIKey, "TANVA_OPENAI_API_KEY")
	setString(&c.GeminiKey, "TANVA_GEMINI_API_KEY")
	setString(&c.KlingKey, "TANVA_KLING_API_KEY")
	setString(&c.TripoKey, "TANVA_TRIPO_API_KEY")
	setString(&c.StorageURL, "TANVA_STORAGE_URL")
	setString(&c.StorageKey, "TANVA_STORAGE_KEY")

	if v := os.Getenv("TANVA_ALLOW_REMOTE"); v == "true" || v == "1" || v == "yes" {
		c.AllowRemote = true
	}
	if v := os.Getenv("TANVA_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionTTL = d
		}
	}
	if v := os.Getenv("TANVA_MAX_SESSIONS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.MaxSessions = n
		}
	}
	if v := os.Getenv("TANVA_DAILY_GRANT"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n >= 0 {
			c.DailyGrant = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "/tmp"
		}
		c.Home = filepath.Join(homeDir, ".tanva")
	}
	if c.Bind == "" {
		c.Bind = "127.0.0.1:7870"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.Home, "tanva.db")
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = fmt.Sprintf("http://%s", c.Bind)
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 64
	}
	if c.DailyGrant < 0 {
		c.DailyGrant = 0
	}
}

// Validate enforces the security constraints on bind address and tokens.
func (c *Config) Validate() error {
	if c.AllowRemote && c.AuthToken == "" {
		return ErrRemoteWithoutToken
	}

	// Refuse non-loopback binds unless explicitly opting into remote access.
	// Checks both IP literals and hostnames; only 127.0.0.0/8, ::1, and
	// "localhost" are considered safe.
	if !c.AllowRemote {
		if host, _, err := net.SplitHostPort(c.Bind); err == nil && host != "" {
			ip := net.ParseIP(host)
			switch {
			case ip != nil && ip.IsLoopback():
			case ip != nil:
				return fmt.Errorf("%w: bind=%s", ErrNonLoopbackBind, c.Bind)
			case host == "localhost":
			default:
				return fmt.Errorf("%w: bind=%s", ErrNonLoopbackBind, c.Bind)
			}
		}
	}
	return nil
}
