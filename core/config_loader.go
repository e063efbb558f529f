package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// EnvConfigLoader reads the relay settings from environment variables.
type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() EnvConfigLoader {
	return EnvConfigLoader{Lookup: os.LookupEnv}
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}

	raw := map[string]any{}
	setString(raw, "service_name", get("SERVICE_NAME"))
	setString(raw, "port", get("PORT"))

	hubspot := map[string]any{}
	setString(hubspot, "access_token", get("HUBSPOT_ACCESS_TOKEN"))
	setString(hubspot, "base_url", get("HUBSPOT_BASE_URL"))
	if len(hubspot) > 0 {
		raw["hubspot"] = hubspot
	}

	pandadoc := map[string]any{}
	setString(pandadoc, "api_key", get("PANDADOC_API_KEY"))
	setString(pandadoc, "base_url", get("PANDADOC_BASE_URL"))
	if len(pandadoc) > 0 {
		raw["pandadoc"] = pandadoc
	}

	if value := get("REQUEST_TIMEOUT"); value != "" {
		timeout, err := parseDuration(value)
		if err != nil {
			return nil, coreError(fmt.Sprintf("core: invalid REQUEST_TIMEOUT %q", value), goerrors.CategoryValidation,
				map[string]any{"value": value})
		}
		raw["request_timeout"] = timeout
	}
	if value := get("MAX_BODY_BYTES"); value != "" {
		limit, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, coreError(fmt.Sprintf("core: invalid MAX_BODY_BYTES %q", value), goerrors.CategoryValidation,
				map[string]any{"value": value})
		}
		raw["max_body_bytes"] = limit
	}

	logCfg := map[string]any{}
	setString(logCfg, "level", strings.ToLower(get("LOG_LEVEL")))
	setString(logCfg, "format", strings.ToLower(get("LOG_FORMAT")))
	if len(logCfg) > 0 {
		raw["log"] = logCfg
	}

	activity := map[string]any{}
	setString(activity, "driver", get("ACTIVITY_DRIVER"))
	setString(activity, "dsn", get("ACTIVITY_DSN"))
	if len(activity) > 0 {
		raw["activity"] = activity
	}
	return raw, nil
}

// parseDuration accepts Go durations ("15s") or a bare number of seconds.
func parseDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func setString(target map[string]any, key, value string) {
	if value != "" {
		target[key] = value
	}
}

// LoadConfig resolves defaults < loader values < runtime overrides and
// validates the result.
func LoadConfig(ctx context.Context, loader RawConfigLoader, runtime map[string]any) (Config, error) {
	defaults := DefaultConfig()
	if loader == nil {
		loader = NewEnvConfigLoader()
	}
	loaded, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("environment", 10),
			cloneLayer(loaded),
			opts.WithSnapshotID[map[string]any]("environment"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			cloneLayer(runtime),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	cfg, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configToLayerMap(cfg Config) map[string]any {
	return map[string]any{
		"service_name": cfg.ServiceName,
		"port":         cfg.Port,
		"hubspot": map[string]any{
			"access_token": cfg.HubSpot.AccessToken,
			"base_url":     cfg.HubSpot.BaseURL,
		},
		"pandadoc": map[string]any{
			"api_key":  cfg.PandaDoc.APIKey,
			"base_url": cfg.PandaDoc.BaseURL,
		},
		"request_timeout": cfg.RequestTimeout,
		"max_body_bytes":  cfg.MaxBodyBytes,
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"activity": map[string]any{
			"driver": cfg.Activity.Driver,
			"dsn":    cfg.Activity.DSN,
		},
	}
}

func cloneLayer(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		if nested, ok := value.(map[string]any); ok {
			out[key] = cloneLayer(nested)
			continue
		}
		out[key] = value
	}
	return out
}
