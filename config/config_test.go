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
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerName != "aura-core" {
		t.Fatalf("expected default server name, got %q", cfg.ServerName)
	}
	if cfg.Transcription.Vendor != "assemblyai" {
		t.Fatalf("expected assemblyai transcription default, got %q", cfg.Transcription.Vendor)
	}
	if cfg.Synthesis.Voice != "en-US-natalie" {
		t.Fatalf("expected default synthesis voice, got %q", cfg.Synthesis.Voice)
	}
	if cfg.Session.GenerationTimeout() != 30*time.Second {
		t.Fatalf("expected 30s generation timeout, got %v", cfg.Session.GenerationTimeout())
	}
	if cfg.Session.Retention() != 30*time.Minute {
		t.Fatalf("expected 30m retention, got %v", cfg.Session.Retention())
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.yaml")
	raw := `
http:
  port: 9000
transcription:
  vendor: deepgram
session:
  queue_capacity: 3
archive:
  enabled: true
  path: ./archive.db
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("unexpected error writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Addr() != "0.0.0.0:9000" {
		t.Fatalf("expected addr to merge default bind, got %q", cfg.HTTP.Addr())
	}
	if cfg.Transcription.Vendor != "deepgram" {
		t.Fatalf("expected deepgram vendor, got %q", cfg.Transcription.Vendor)
	}
	if cfg.Session.QueueCapacity != 3 {
		t.Fatalf("expected queue capacity 3, got %d", cfg.Session.QueueCapacity)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "./archive.db" {
		t.Fatalf("expected archive overrides, got %+v", cfg.Archive)
	}
	if cfg.Generation.Model != "gemini-2.5-pro" {
		t.Fatalf("expected untouched generation default, got %q", cfg.Generation.Model)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AURA_HTTP_PORT", "8443")
	t.Setenv("AURA_SYNTHESIS_VENDOR", "deepgram")
	t.Setenv("AURA_SESSION_TOOL_TIMEOUT_MS", "2500")
	t.Setenv("AURA_GENERATION_API_KEY", "env-gen-key")
	t.Setenv("AURA_WEATHER_API_KEY", "env-weather-key")
	t.Setenv("AURA_ARCHIVE_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 8443 {
		t.Fatalf("expected port override, got %d", cfg.HTTP.Port)
	}
	if cfg.Synthesis.Vendor != "deepgram" {
		t.Fatalf("expected synthesis vendor override, got %q", cfg.Synthesis.Vendor)
	}
	if cfg.Session.ToolTimeout() != 2500*time.Millisecond {
		t.Fatalf("expected tool timeout override, got %v", cfg.Session.ToolTimeout())
	}
	if !cfg.Archive.Enabled {
		t.Fatal("expected archive enabled override")
	}

	credentials := cfg.Credentials.AsMap()
	if credentials["generation"] != "env-gen-key" {
		t.Fatalf("expected generation credential from env")
	}
	if credentials["weather"] != "env-weather-key" {
		t.Fatalf("expected weather credential from env")
	}
	if _, ok := credentials["synthesis"]; ok {
		t.Fatal("expected unset synthesis credential to stay absent")
	}
}

func TestValidateRejectsUnknownVendor(t *testing.T) {
	t.Setenv("AURA_TRANSCRIPTION_VENDOR", "whisper")

	if _, err := Load(""); err == nil {
		t.Fatal("expected unknown transcription vendor to be rejected")
	}
}
