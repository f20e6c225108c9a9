// Package config holds the sheets-relay runtime settings.
//
// Settings are layered: built-in defaults, an optional TOML file, a .env file in the
// working directory, the process environment and finally the command line flags of
// the 'run' command.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPort       = 3000
	DefaultSessionTTL = 24 * time.Hour
	MaxUploadSize     = 10 * 1024 * 1024
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Port           int    `toml:"port"`
	MaxConnections int    `toml:"max_connections"`
	Debug          bool   `toml:"debug"`
	HomeURL        string `toml:"home_url"`
	FailureURL     string `toml:"failure_url"`

	Google  Google  `toml:"google"`
	Session Session `toml:"session"`
	Webhook Webhook `toml:"webhook"`
}

// Google holds the OAuth client used for user sign-in and the service account used for
// the shared-secret webhook. Credentials optionally points to a downloaded OAuth client
// JSON file and takes precedence over ClientID/ClientSecret.
type Google struct {
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	CallbackURL    string `toml:"callback_url"`
	Credentials    string `toml:"credentials"`
	ServiceAccount string `toml:"service_account"`
}

type Session struct {
	Secret string        `toml:"secret"`
	Secure bool          `toml:"secure"`
	TTL    time.Duration `toml:"ttl"`
}

type Webhook struct {
	Token       string `toml:"token"`
	WorkflowURL string `toml:"workflow_url"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = DefaultPort
	c.MaxConnections = 0
	c.Debug = false
	c.HomeURL = "/"
	c.FailureURL = "/login?error=auth_failed"
	c.Google.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", DefaultPort)
	c.Session.TTL = DefaultSessionTTL
	c.Session.Secure = false
}

// Load builds a Config from the defaults, the TOML file at path (if path is not empty),
// the .env file in the working directory (if any) and the process environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if strings.TrimSpace(path) != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := cfg.loadEnv(lookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings required to serve HTTP.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)

	case c.Google.Credentials == "" && strings.TrimSpace(c.Google.ClientID) == "":
		return fmt.Errorf("%w: GOOGLE_CLIENT_ID is required", ErrInvalidConfig)

	case c.Google.Credentials == "" && strings.TrimSpace(c.Google.ClientSecret) == "":
		return fmt.Errorf("%w: GOOGLE_CLIENT_SECRET is required", ErrInvalidConfig)

	case strings.TrimSpace(c.Google.CallbackURL) == "":
		return fmt.Errorf("%w: GOOGLE_CALLBACK_URL is required", ErrInvalidConfig)

	case len(c.Session.Secret) < 16:
		return fmt.Errorf("%w: SESSION_SECRET must be at least 16 characters", ErrInvalidConfig)

	case c.Session.TTL <= 0:
		return fmt.Errorf("%w: session TTL must be positive", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
