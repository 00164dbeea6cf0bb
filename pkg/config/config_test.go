package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestLoadFullConfig checks parsing of a complete config file.
func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
models:
  default_chat: gpt
  definitions:
    gpt:
      provider: openai
      model_name: gpt-4o-mini
      api_key: sk-test
      max_tokens: 1000
      temperature: 0.5
      timeout: 60s
tools:
  get_weather:
    enabled: true
    timeout: 10s
  http_fetch:
    enabled: false
s3:
  endpoint: minio.local:9000
  bucket: artifacts
  access_key: ak
  secret_key: sk
audit:
  enabled: true
  path: ./audit.db
app:
  debug: true
  max_iterations: 7
  tool_choice: required
  streaming:
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	model, ok := cfg.GetChatModel("")
	if !ok {
		t.Fatal("default chat model not found")
	}
	if model.ModelName != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", model.ModelName)
	}
	if model.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", model.Timeout)
	}

	if !cfg.GetToolConfig("get_weather").Enabled {
		t.Error("get_weather must be enabled")
	}
	if cfg.GetToolConfig("http_fetch").Enabled {
		t.Error("http_fetch must be disabled")
	}

	if !cfg.S3.Enabled() {
		t.Error("s3 must be enabled when endpoint is set")
	}
	if cfg.AuditPath() != "./audit.db" {
		t.Errorf("unexpected audit path: %s", cfg.AuditPath())
	}
	if cfg.App.MaxIterations != 7 {
		t.Errorf("expected 7 iterations, got %d", cfg.App.MaxIterations)
	}
	if cfg.App.ToolChoice != "required" {
		t.Errorf("expected required, got %s", cfg.App.ToolChoice)
	}
	if !cfg.App.Streaming.Enabled {
		t.Error("streaming must be enabled")
	}
}

// TestLoadExpandsEnvVars checks ${VAR} substitution.
func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_SERAPE_KEY", "sk-from-env")

	path := writeConfig(t, `
models:
  definitions:
    gpt:
      provider: openai
      api_key: ${TEST_SERAPE_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Models.Definitions["gpt"].APIKey != "sk-from-env" {
		t.Errorf("expected env substitution, got %s", cfg.Models.Definitions["gpt"].APIKey)
	}
}

// TestLoadMissingFile checks the not-found error.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestLoadValidation checks consistency checks.
func TestLoadValidation(t *testing.T) {
	// default_chat points at an undefined model
	path := writeConfig(t, `
models:
  default_chat: ghost
  definitions:
    gpt:
      provider: openai
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for undefined default_chat")
	}

	// s3 endpoint without bucket
	path = writeConfig(t, `
s3:
  endpoint: minio.local:9000
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for s3 endpoint without bucket")
	}
}

// TestGetToolConfigDefaults checks that missing sections mean enabled.
func TestGetToolConfigDefaults(t *testing.T) {
	cfg := &AppConfig{}
	if !cfg.GetToolConfig("anything").Enabled {
		t.Error("missing tools section must default to enabled")
	}

	cfg.Tools = map[string]ToolConfig{"known": {Enabled: false}}
	if cfg.GetToolConfig("known").Enabled {
		t.Error("explicit enabled: false must win")
	}
	if !cfg.GetToolConfig("unknown").Enabled {
		t.Error("unknown tool must default to enabled")
	}
}

// TestAuditPathDefault checks the fallback path.
func TestAuditPathDefault(t *testing.T) {
	cfg := &AppConfig{}
	if cfg.AuditPath() != "serape-audit.db" {
		t.Errorf("unexpected default audit path: %s", cfg.AuditPath())
	}
}
