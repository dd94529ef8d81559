package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadResolvesRelativeDSN(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":8080", "ai_provider": "openai"},
		"databases": {"sqlite3": {"dsn": "data/app.db"}},
		"providers": {"openai": {"model": "gpt-4o", "api_key": "k"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dsn := cfg.Databases["sqlite3"].DSN
	if !filepath.IsAbs(dsn) {
		t.Fatalf("relative dsn not resolved: %s", dsn)
	}
	if filepath.Dir(filepath.Dir(dsn)) != filepath.Dir(path) {
		t.Fatalf("dsn resolved against wrong base: %s", dsn)
	}
}

func TestLoadKeepsMemoryDSN(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"ai_provider": "openai"},
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"openai": {"model": "gpt-4o", "api_key": "k"}}
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Databases["sqlite3"].DSN != ":memory:" {
		t.Fatalf("memory dsn rewritten: %s", cfg.Databases["sqlite3"].DSN)
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `{"basic_config": {"ai_provider": "openai"}}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing databases")
	}
}

func TestLoadProviderKeyFromEnv(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"ai_provider": "claude"},
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"claude": {"model": "claude-sonnet-4-20250514"}}
	}`)
	t.Setenv("ANTHROPIC_API_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers["claude"].APIKey != "env-secret" {
		t.Fatalf("env key not applied: %q", cfg.Providers["claude"].APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
