package core

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()
	base.ListsBaseURL = "https://lists.example.test/"
	base.UsersBaseURL = "https://users.example.test/"

	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*Config){
		"lists_base_url": func(c *Config) { c.ListsBaseURL = "" },
		"absolute url":   func(c *Config) { c.UsersBaseURL = "/relative/path" },
		"token_url":      func(c *Config) { c.Environment = EnvironmentDevelopment },
		"application":    func(c *Config) { c.Application = " " },
		"lists.errors":   func(c *Config) { c.Lists.Errors.Title = "" },
		"journal.driver": func(c *Config) { c.Journal.Driver = "oracle" },
		"digest":         func(c *Config) { c.DigestValidityMS = -1 },
		"journal.max":    func(c *Config) { c.Journal.MaxRows = -5 },
	}
	for fragment, mutate := range cases {
		cfg := base
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("expected validation error for %s", fragment)
		}
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected error to mention %q, got %v", fragment, err)
		}
	}
}

func TestConfigDurationsFallBackToDefaults(t *testing.T) {
	cfg := Config{}
	if cfg.DigestValidity() != 30*time.Minute {
		t.Fatalf("expected 30m digest validity, got %s", cfg.DigestValidity())
	}
	if cfg.RequestTimeout() != DefaultRequestTimeout {
		t.Fatalf("expected default request timeout, got %s", cfg.RequestTimeout())
	}
	cfg.DigestValidityMS = 1500
	if cfg.DigestValidity() != 1500*time.Millisecond {
		t.Fatalf("expected configured validity, got %s", cfg.DigestValidity())
	}
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{
		Environment:  " Development ",
		ListsBaseURL: "https://lists.example.test/sites/app",
		UsersBaseURL: "https://users.example.test/",
		SiteBaseURL:  "https://site.example.test/",
		Journal:      JournalConfig{Driver: " SQLite3 "},
	}.Normalized()

	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment")
	}
	if cfg.ListsBaseURL != "https://lists.example.test/sites/app/" {
		t.Fatalf("expected trailing slash, got %q", cfg.ListsBaseURL)
	}
	if cfg.UsersBaseURL != "https://users.example.test/" {
		t.Fatalf("expected single trailing slash, got %q", cfg.UsersBaseURL)
	}
	if cfg.SiteBaseURL != "https://site.example.test" {
		t.Fatalf("expected site base without trailing slash, got %q", cfg.SiteBaseURL)
	}
	if cfg.Journal.Driver != "sqlite3" {
		t.Fatalf("expected lowercase driver, got %q", cfg.Journal.Driver)
	}
}
