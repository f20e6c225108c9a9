package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type envLookup func(string) (string, bool)

var lookupEnv envLookup = os.LookupEnv

// loadDotEnv loads .env into the process environment. Variables that are already set
// are not overridden and a missing .env is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	return nil
}

func (c *Config) loadEnv(env envLookup) error {
	str := func(key string, v *string) {
		if s, ok := env(key); ok && strings.TrimSpace(s) != "" {
			*v = strings.TrimSpace(s)
		}
	}

	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_CALLBACK_URL", &c.Google.CallbackURL)
	str("GOOGLE_CREDENTIALS", &c.Google.Credentials)
	str("GOOGLE_SERVICE_ACCOUNT", &c.Google.ServiceAccount)
	str("SESSION_SECRET", &c.Session.Secret)
	str("WEBHOOK_TOKEN", &c.Webhook.Token)
	str("N8N_WEBHOOK_URL", &c.Webhook.WorkflowURL)
	str("CLIENT_URL", &c.HomeURL)
	str("AUTH_FAILURE_URL", &c.FailureURL)

	if s, ok := env("PORT"); ok && strings.TrimSpace(s) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: invalid PORT %q", ErrInvalidConfig, s)
		}
		c.Port = port
	}

	if s, ok := env("MAX_CONNECTIONS"); ok && strings.TrimSpace(s) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: invalid MAX_CONNECTIONS %q", ErrInvalidConfig, s)
		}
		c.MaxConnections = n
	}

	if s, ok := env("SESSION_TTL"); ok && strings.TrimSpace(s) != "" {
		ttl, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: invalid SESSION_TTL %q", ErrInvalidConfig, s)
		}
		c.Session.TTL = ttl
	}

	for key, v := range map[string]*bool{"SESSION_SECURE": &c.Session.Secure, "DEBUG": &c.Debug} {
		if s, ok := env(key); ok && strings.TrimSpace(s) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("%w: invalid %s %q", ErrInvalidConfig, key, s)
			}
			*v = b
		}
	}

	return nil
}
