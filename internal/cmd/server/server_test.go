package server

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want localhost:8080", cfg.HTTPAddr)
	}
}

func TestParseConfigEnvOverride(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	lookup := func(key string) (string, bool) {
		if key == "DOCVAULT_HTTP_ADDR" {
			return "0.0.0.0:9090", true
		}
		return "", false
	}
	cfg, err := ParseConfig(fs, nil, lookup)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9090" {
		t.Fatalf("HTTPAddr = %q, want env value", cfg.HTTPAddr)
	}
}

func TestParseConfigFlagWinsOverEnv(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	lookup := func(key string) (string, bool) {
		return "0.0.0.0:9090", true
	}
	cfg, err := ParseConfig(fs, []string{"-http-addr", "localhost:7070"}, lookup)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.HTTPAddr != "localhost:7070" {
		t.Fatalf("HTTPAddr = %q, want flag value", cfg.HTTPAddr)
	}
}
