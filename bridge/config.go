package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/viant/scy"
)

// Config captures the environment-driven bridge settings.
type Config struct {
	APIKey          string
	APIKeyURL       string
	APIURL          string
	Port            int
	PollInterval    time.Duration
	PollMaxAttempts int
	HTTPTimeout     time.Duration
}

// LoadConfig reads configuration from TESS_* environment variables. The API
// key comes either from TESS_API_KEY directly or from the encrypted secret at
// TESS_API_KEY_URL.
func LoadConfig(ctx context.Context) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("tess")
	v.AutomaticEnv()
	v.SetDefault("api_url", "https://tess.pareto.io")
	v.SetDefault("bridge_port", 5000)
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("poll_max_attempts", 60)
	v.SetDefault("http_timeout", "30s")

	ret := &Config{
		APIKey:          strings.TrimSpace(v.GetString("api_key")),
		APIKeyURL:       strings.TrimSpace(v.GetString("api_key_url")),
		APIURL:          v.GetString("api_url"),
		Port:            v.GetInt("bridge_port"),
		PollInterval:    v.GetDuration("poll_interval"),
		PollMaxAttempts: v.GetInt("poll_max_attempts"),
		HTTPTimeout:     v.GetDuration("http_timeout"),
	}
	if err := ret.Init(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// Init resolves the API key secret and validates the settings.
func (c *Config) Init(ctx context.Context) error {
	if c.APIKey == "" && c.APIKeyURL != "" {
		secrets := scy.New()
		secret, err := secrets.Load(ctx, scy.NewResource("", c.APIKeyURL, "blowfish://default"))
		if err != nil {
			return fmt.Errorf("failed to load api key from %v: %w", c.APIKeyURL, err)
		}
		c.APIKey = strings.TrimSpace(secret.String())
	}
	return c.Validate()
}

// Validate checks the settings a running bridge cannot do without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TESS_API_KEY was empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid TESS_BRIDGE_PORT: %v", c.Port)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid TESS_POLL_INTERVAL: %v", c.PollInterval)
	}
	if c.PollMaxAttempts <= 0 {
		return fmt.Errorf("invalid TESS_POLL_MAX_ATTEMPTS: %v", c.PollMaxAttempts)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
