package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config under the project root.
func RunWizard(projectRoot string) (*Config, error) {
	fmt.Println("Welcome to cliplin! Let's configure your project context store.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider selection.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{string(ProviderOllama), string(ProviderOpenAI)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.EmbeddingProvider = ProviderType(providerStr)

	// 2. Embedding model.
	defaultModel := "nomic-embed-text"
	if cfg.EmbeddingProvider == ProviderOpenAI {
		defaultModel = "text-embedding-3-small"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: defaultModel,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.EmbeddingModel = model

	// 3. Dimensions only matter for Ollama models.
	if cfg.EmbeddingProvider == ProviderOllama {
		dimsPrompt := promptui.Prompt{
			Label:   "Embedding dimensions",
			Default: strconv.Itoa(cfg.EmbeddingDimensions),
			Validate: func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n <= 0 {
					return fmt.Errorf("must be a positive integer")
				}
				return nil
			},
		}
		dims, err := dimsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("dimensions: %w", err)
		}
		cfg.EmbeddingDimensions, _ = strconv.Atoi(dims)
	} else {
		cfg.EmbeddingDimensions = 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := Path(projectRoot)
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
