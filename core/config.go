package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

const (
	DefaultApplication    = "MySSC"
	DefaultDigestValidity = 30 * time.Minute
	DefaultRequestTimeout = 30 * time.Second
)

type ListConfig struct {
	Title      string `koanf:"title" mapstructure:"title"`
	EntityType string `koanf:"entity_type" mapstructure:"entity_type"`
}

type ListsConfig struct {
	Errors   ListConfig `koanf:"errors" mapstructure:"errors"`
	Users    ListConfig `koanf:"users" mapstructure:"users"`
	Current  ListConfig `koanf:"current" mapstructure:"current"`
	Entities ListConfig `koanf:"entities" mapstructure:"entities"`
}

// JournalConfig names the database for undeliverable reports. RetentionMS
// and MaxRows bound it; zero leaves that bound off.
type JournalConfig struct {
	Driver      string `koanf:"driver" mapstructure:"driver"`
	DSN         string `koanf:"dsn" mapstructure:"dsn"`
	RetentionMS int64  `koanf:"retention_ms" mapstructure:"retention_ms"`
	MaxRows     int    `koanf:"max_rows" mapstructure:"max_rows"`
}

func (c JournalConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != "" && strings.TrimSpace(c.DSN) != ""
}

func (c JournalConfig) Retention() time.Duration {
	if c.RetentionMS <= 0 {
		return 0
	}
	return time.Duration(c.RetentionMS) * time.Millisecond
}

type Config struct {
	Environment      string        `koanf:"environment" mapstructure:"environment"`
	Application      string        `koanf:"application" mapstructure:"application"`
	ListsBaseURL     string        `koanf:"lists_base_url" mapstructure:"lists_base_url"`
	UsersBaseURL     string        `koanf:"users_base_url" mapstructure:"users_base_url"`
	TokenURL         string        `koanf:"token_url" mapstructure:"token_url"`
	SiteBaseURL      string        `koanf:"site_base_url" mapstructure:"site_base_url"`
	DevUserID        int           `koanf:"dev_user_id" mapstructure:"dev_user_id"`
	DigestValidityMS int64         `koanf:"digest_validity_ms" mapstructure:"digest_validity_ms"`
	RequestTimeoutMS int64         `koanf:"request_timeout_ms" mapstructure:"request_timeout_ms"`
	Lists            ListsConfig   `koanf:"lists" mapstructure:"lists"`
	Journal          JournalConfig `koanf:"journal" mapstructure:"journal"`
}

func DefaultConfig() Config {
	return Config{
		Environment:      EnvironmentProduction,
		Application:      DefaultApplication,
		DigestValidityMS: DefaultDigestValidity.Milliseconds(),
		RequestTimeoutMS: DefaultRequestTimeout.Milliseconds(),
		Lists: ListsConfig{
			Errors:   ListConfig{Title: "Errors", EntityType: "SP.Data.ErrorsListItem"},
			Users:    ListConfig{Title: "Users", EntityType: "SP.Data.UsersListItem"},
			Current:  ListConfig{Title: "SupraCoder-Evan", EntityType: "SP.Data.SupraCoderEvanListItem"},
			Entities: ListConfig{Title: "Entities", EntityType: "SP.Data.EntitiesListItem"},
		},
	}
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentDevelopment)
}

func (c Config) DigestValidity() time.Duration {
	if c.DigestValidityMS <= 0 {
		return DefaultDigestValidity
	}
	return time.Duration(c.DigestValidityMS) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutMS <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Normalized returns a copy with trimmed values and base URLs ending in "/".
func (c Config) Normalized() Config {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.Application = strings.TrimSpace(c.Application)
	c.ListsBaseURL = withTrailingSlash(c.ListsBaseURL)
	c.UsersBaseURL = withTrailingSlash(c.UsersBaseURL)
	c.SiteBaseURL = strings.TrimRight(strings.TrimSpace(c.SiteBaseURL), "/")
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	c.Journal.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Driver))
	c.Journal.DSN = strings.TrimSpace(c.Journal.DSN)
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Application) == "" {
		return fmt.Errorf("core: application is required")
	}
	if err := validateBaseURL("lists_base_url", c.ListsBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("users_base_url", c.UsersBaseURL); err != nil {
		return err
	}
	if c.IsDevelopment() && strings.TrimSpace(c.TokenURL) == "" {
		return fmt.Errorf("core: token_url is required in development mode")
	}
	if c.DigestValidityMS < 0 {
		return fmt.Errorf("core: digest_validity_ms must not be negative")
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("core: request_timeout_ms must not be negative")
	}
	for name, list := range map[string]ListConfig{
		"errors":  c.Lists.Errors,
		"users":   c.Lists.Users,
		"current": c.Lists.Current,
	} {
		if strings.TrimSpace(list.Title) == "" {
			return fmt.Errorf("core: lists.%s.title is required", name)
		}
	}
	if c.Journal.RetentionMS < 0 || c.Journal.MaxRows < 0 {
		return fmt.Errorf("core: journal.retention_ms and journal.max_rows must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Journal.Driver)) {
	case "", "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("core: journal.driver %q is not supported", c.Journal.Driver)
	}
	return nil
}

func validateBaseURL(field string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("core: %s is required", field)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("core: %s is invalid: %w", field, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: %s must be an absolute url", field)
	}
	return nil
}

func withTrailingSlash(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}
