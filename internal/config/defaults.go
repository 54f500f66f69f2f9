package config

import "path/filepath"

// DefaultPort is the default port of the local HTTP API server.
const DefaultPort = 8377

// Path returns the location of the config file inside a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".cliplin", "config.yml")
}

// DefaultConfig returns a Config with sensible defaults. Ollama is the
// default provider because it needs no API key.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingProvider:   ProviderOllama,
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: 768,
		Server: ServerConfig{
			Port: DefaultPort,
		},
	}
}
