package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// DefaultErrorMapper converts arbitrary errors into the splist error envelope.
func DefaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return splistErrorMapper(err)
}

// MapBuildError applies mapper to err, falling back to err when the mapper
// declines.
func MapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// CfgxConfigProvider decodes raw values on top of defaults. Validation runs
// once the layers are merged, since a partial source is legal here.
type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
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
	resolved, err := cfgx.Build[Config](merged.Value, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	resolved = resolved.Normalized()
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setInt := func(target map[string]any, key string, value int64) {
		if includeZero || value != 0 {
			target[key] = value
		}
	}

	setString(layer, "environment", cfg.Environment)
	setString(layer, "application", cfg.Application)
	setString(layer, "lists_base_url", cfg.ListsBaseURL)
	setString(layer, "users_base_url", cfg.UsersBaseURL)
	setString(layer, "token_url", cfg.TokenURL)
	setString(layer, "site_base_url", cfg.SiteBaseURL)
	setInt(layer, "dev_user_id", int64(cfg.DevUserID))
	setInt(layer, "digest_validity_ms", cfg.DigestValidityMS)
	setInt(layer, "request_timeout_ms", cfg.RequestTimeoutMS)

	lists := map[string]any{}
	for key, list := range map[string]ListConfig{
		"errors":   cfg.Lists.Errors,
		"users":    cfg.Lists.Users,
		"current":  cfg.Lists.Current,
		"entities": cfg.Lists.Entities,
	} {
		entry := map[string]any{}
		setString(entry, "title", list.Title)
		setString(entry, "entity_type", list.EntityType)
		if len(entry) > 0 {
			lists[key] = entry
		}
	}
	if len(lists) > 0 {
		layer["lists"] = lists
	}

	journal := map[string]any{}
	setString(journal, "driver", cfg.Journal.Driver)
	setString(journal, "dsn", cfg.Journal.DSN)
	if len(journal) > 0 {
		layer["journal"] = journal
	}
	return layer
}
