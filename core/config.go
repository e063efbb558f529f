package core

import (
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultHubSpotBaseURL  = "https://api.hubapi.com"
	DefaultPandaDocBaseURL = "https://api.pandadoc.com/public/v1"
	DefaultPort            = "10000"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
)

type HubSpotConfig struct {
	AccessToken string `koanf:"access_token" mapstructure:"access_token"`
	BaseURL     string `koanf:"base_url" mapstructure:"base_url"`
}

type PandaDocConfig struct {
	APIKey  string `koanf:"api_key" mapstructure:"api_key"`
	BaseURL string `koanf:"base_url" mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

// ActivityConfig enables the optional outcome ledger. An empty driver
// disables it.
type ActivityConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

func (c ActivityConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != ""
}

type Config struct {
	ServiceName    string         `koanf:"service_name" mapstructure:"service_name"`
	Port           string         `koanf:"port" mapstructure:"port"`
	HubSpot        HubSpotConfig  `koanf:"hubspot" mapstructure:"hubspot"`
	PandaDoc       PandaDocConfig `koanf:"pandadoc" mapstructure:"pandadoc"`
	RequestTimeout time.Duration  `koanf:"request_timeout" mapstructure:"request_timeout"`
	MaxBodyBytes   int64          `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	Log            LogConfig      `koanf:"log" mapstructure:"log"`
	Activity       ActivityConfig `koanf:"activity" mapstructure:"activity"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "contact-relay",
		Port:        DefaultPort,
		HubSpot: HubSpotConfig{
			BaseURL: DefaultHubSpotBaseURL,
		},
		PandaDoc: PandaDocConfig{
			BaseURL: DefaultPandaDocBaseURL,
		},
		RequestTimeout: DefaultRequestTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects configurations the relay must not start with. Missing
// credentials are fatal.
func (c *Config) Validate() error {
	if c == nil {
		return coreError("core: config is required", goerrors.CategoryValidation, nil)
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		return coreError("core: service_name is required", goerrors.CategoryValidation, nil)
	}
	if strings.TrimSpace(c.HubSpot.AccessToken) == "" {
		return coreError("core: HUBSPOT_ACCESS_TOKEN environment variable is required", goerrors.CategoryValidation,
			map[string]any{"field": "hubspot.access_token"})
	}
	if strings.TrimSpace(c.PandaDoc.APIKey) == "" {
		return coreError("core: PANDADOC_API_KEY environment variable is required", goerrors.CategoryValidation,
			map[string]any{"field": "pandadoc.api_key"})
	}
	if strings.TrimSpace(c.HubSpot.BaseURL) == "" {
		return coreError("core: hubspot.base_url is required", goerrors.CategoryValidation, nil)
	}
	if strings.TrimSpace(c.PandaDoc.BaseURL) == "" {
		return coreError("core: pandadoc.base_url is required", goerrors.CategoryValidation, nil)
	}
	if c.RequestTimeout <= 0 {
		return coreError("core: request_timeout must be positive", goerrors.CategoryValidation,
			map[string]any{"request_timeout": c.RequestTimeout.String()})
	}
	if c.MaxBodyBytes <= 0 {
		return coreError("core: max_body_bytes must be positive", goerrors.CategoryValidation,
			map[string]any{"max_body_bytes": c.MaxBodyBytes})
	}
	if c.Activity.Enabled() && strings.TrimSpace(c.Activity.DSN) == "" {
		return coreError("core: activity.dsn is required when activity.driver is set", goerrors.CategoryValidation,
			map[string]any{"driver": c.Activity.Driver})
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = DefaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
