package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://neocities.org" {
		t.Fatalf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.PushInterval != 0 {
		t.Fatalf("PushInterval = %v", cfg.PushInterval)
	}
	if cfg.StorageType != "bbolt" || cfg.StorageTTL != 30*24*time.Hour {
		t.Fatalf("unexpected storage defaults %#v", cfg)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("NEOCITIES_USERNAME", "alice")
	t.Setenv("NEOCITIES_PASSWORD", "s3cret")
	t.Setenv("PUSH_INTERVAL_SECONDS", "60")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Username != "alice" || cfg.Password != "s3cret" {
		t.Fatalf("credentials not loaded: %#v", cfg.Redacted())
	}
	if cfg.PushInterval != time.Minute {
		t.Fatalf("PushInterval = %v", cfg.PushInterval)
	}
	if cfg.Redacted().Password != "***" {
		t.Fatalf("Redacted kept the password")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neocities.yaml")
	raw := "neocities_username: bob\nmanifest_file: ./site.yaml\nrequest_timeout_seconds: 5\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Username != "bob" || cfg.ManifestFile != "./site.yaml" || cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("config file values not applied: %#v", cfg.Redacted())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "0")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
