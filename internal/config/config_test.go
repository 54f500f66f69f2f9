package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.EmbeddingProvider != ProviderOllama {
		t.Errorf("expected default provider %q, got %q", ProviderOllama, cfg.EmbeddingProvider)
	}
	if cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("expected default model nomic-embed-text, got %q", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingDimensions != 768 {
		t.Errorf("expected default dimensions 768, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
}

func TestPath(t *testing.T) {
	got := Path("/work/project")
	want := filepath.Join("/work/project", ".cliplin", "config.yml")
	if got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cliplin", "config.yml")

	original := DefaultConfig()
	original.EmbeddingProvider = ProviderOpenAI
	original.EmbeddingModel = "text-embedding-3-small"
	original.EmbeddingDimensions = 1536
	original.Server.Port = 9000
	original.Server.AllowAll = true

	// Save creates the parent directory.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.EmbeddingProvider != original.EmbeddingProvider {
		t.Errorf("provider: got %q, want %q", loaded.EmbeddingProvider, original.EmbeddingProvider)
	}
	if loaded.EmbeddingModel != original.EmbeddingModel {
		t.Errorf("model: got %q, want %q", loaded.EmbeddingModel, original.EmbeddingModel)
	}
	if loaded.EmbeddingDimensions != original.EmbeddingDimensions {
		t.Errorf("dimensions: got %d, want %d", loaded.EmbeddingDimensions, original.EmbeddingDimensions)
	}
	if loaded.Server.Port != original.Server.Port {
		t.Errorf("port: got %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if !loaded.Server.AllowAll {
		t.Error("allow_all_origins not round-tripped")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.EmbeddingProvider != ProviderOllama {
		t.Errorf("expected default provider, got %q", cfg.EmbeddingProvider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	os.Setenv("CLIPLIN_EMBEDDING_PROVIDER", "openai")
	defer os.Unsetenv("CLIPLIN_EMBEDDING_PROVIDER")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.EmbeddingProvider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.EmbeddingProvider, ProviderOpenAI)
	}
}

func TestLoadEnvNestedOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Double underscore maps to nesting: CLIPLIN_SERVER__PORT -> server.port.
	os.Setenv("CLIPLIN_SERVER__PORT", "9999")
	defer os.Unsetenv("CLIPLIN_SERVER__PORT")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("nested env override failed: got %d, want 9999", loaded.Server.Port)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.EmbeddingProvider = "" }},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "cohere" }},
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }},
		{"negative dimensions", func(c *Config) { c.EmbeddingDimensions = -1 }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("openai key var: got %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama should need no key, got %q", got)
	}
}
