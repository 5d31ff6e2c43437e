package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8470 {
		t.Errorf("expected default port 8470, got %d", cfg.Server.Port)
	}
	if cfg.Server.RunMode != "both" {
		t.Errorf("expected run mode both, got %q", cfg.Server.RunMode)
	}
	if cfg.Queue.Type != "memory" {
		t.Errorf("expected memory queue, got %q", cfg.Queue.Type)
	}
	if cfg.Graph.Timeout != 30*time.Second {
		t.Errorf("expected 30s graph timeout, got %s", cfg.Graph.Timeout)
	}
	if cfg.Events.AMQPURL != "" {
		t.Errorf("expected events disabled by default, got %q", cfg.Events.AMQPURL)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "server:\n  port: 9000\ngraph:\n  api_version: v20.0\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WABASTUDIO_QUEUE_TYPE", "valkey")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Graph.APIVersion != "v20.0" {
		t.Errorf("expected api version from file, got %q", cfg.Graph.APIVersion)
	}
	if cfg.Queue.Type != "valkey" {
		t.Errorf("expected queue type from env, got %q", cfg.Queue.Type)
	}
}

func TestSealSecret_FallsBackToJWTSecret(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWTSecret: "jwt"}}
	if got := cfg.SealSecret(); got != "jwt" {
		t.Errorf("expected jwt secret fallback, got %q", got)
	}
	cfg.Crypto.Secret = "seal"
	if got := cfg.SealSecret(); got != "seal" {
		t.Errorf("expected crypto secret, got %q", got)
	}
}
