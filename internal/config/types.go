package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level cliplin configuration, corresponding to
// .cliplin/config.yml inside the project root.
type Config struct {
	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	OllamaBaseURL       string       `yaml:"ollama_base_url" koanf:"ollama_base_url"`
	Server              ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds settings for the local HTTP API server.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
