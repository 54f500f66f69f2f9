// Package embeddings provides the text-embedding providers used by the
// context store's vector index.
package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// ToChromemFunc adapts an Embedder to chromem's one-text-at-a-time
// embedding function. Anything other than exactly one vector back is
// a provider bug and surfaces as an error.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedder %s returned %d vectors for one text", e.Name(), len(vecs))
		}
		return vecs[0], nil
	}
}
