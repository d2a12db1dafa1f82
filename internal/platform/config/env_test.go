package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int    `env:"SUBSCRIPTION_TEST_PORT" envDefault:"8095"`
	Path string `env:"SUBSCRIPTION_TEST_DB_PATH"`
}

type prefixedTestConfig struct {
	Issuer   string `env:"ISSUER"`
	Audience string `env:"AUDIENCE" envDefault:"subscription"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8095 {
		t.Fatalf("port = %d, want 8095", cfg.Port)
	}
	if cfg.Path != "" {
		t.Fatalf("path = %q, want empty", cfg.Path)
	}
}

func TestParseEnvRejectsMalformedValue(t *testing.T) {
	t.Setenv("SUBSCRIPTION_TEST_PORT", "eighty")

	var cfg envTestConfig
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "parse env:") {
		t.Fatalf("error = %v, want parse env prefix", err)
	}
}

func TestParseEnvWithPrefixReadsSuffixedNames(t *testing.T) {
	t.Setenv("SUBSCRIPTION_TEST_GRANT_ISSUER", "issuer-1")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, "SUBSCRIPTION_TEST_GRANT_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Issuer != "issuer-1" {
		t.Fatalf("issuer = %q, want issuer-1", cfg.Issuer)
	}
	if cfg.Audience != "subscription" {
		t.Fatalf("audience = %q, want subscription", cfg.Audience)
	}
}

func TestParseEnvWithBlankPrefixFallsBackToPlainNames(t *testing.T) {
	t.Setenv("ISSUER", "plain")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, "  "); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Issuer != "plain" {
		t.Fatalf("issuer = %q, want plain", cfg.Issuer)
	}
}
