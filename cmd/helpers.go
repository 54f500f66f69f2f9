package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cliplin/cliplin/internal/config"
	"github.com/cliplin/cliplin/internal/contextstore"
	"github.com/cliplin/cliplin/internal/embeddings"
)

// resolveRoot returns the absolute project root.
func resolveRoot() (string, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	return root, nil
}

// loadConfig loads and validates the project config.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `cliplin init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.OllamaBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// openStore builds the context store for the resolved project root. No
// I/O happens until the first store operation.
func openStore() (contextstore.ContextStore, string, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, "", err
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, "", err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "using %s embeddings, database at %s\n",
			embedder.Name(), contextstore.DatabasePath(root))
	}
	return contextstore.New(root, embedder), root, nil
}
