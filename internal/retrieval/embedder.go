package retrieval

import (
	"context"
	"fmt"

	"github.com/ruslanv/pdfchat/internal/engine"
	"golang.org/x/sync/errgroup"
)

// embedConcurrency bounds parallel embedding calls so ingesting a large
// document does not overwhelm the local Ollama instance.
const embedConcurrency = 4

// Embedder turns questions and document chunks into vectors using the
// configured embedding model.
type Embedder struct {
	engine engine.Engine
	model  string
}

// NewEmbedder creates an Embedder using the given Engine and model name.
func NewEmbedder(e engine.Engine, model string) *Embedder {
	return &Embedder{engine: e, model: model}
}

// EmbedQuery returns the vector for a single question.
func (e *Embedder) EmbedQuery(ctx context.Context, question string) ([]float32, error) {
	vec, err := e.engine.Embed(ctx, e.model, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vec, nil
}

// EmbedChunks embeds the chunks of one document concurrently. The result
// is position-stable: vector i belongs to chunk i. Every vector must come
// back with the same dimension; a mismatch means the chunks cannot be
// searched against each other and the whole ingest is rejected. Returns
// nil (not error) for empty input.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := e.engine.Embed(gCtx, e.model, chunk)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("chunk %d: embedding dimension %d, want %d", i, len(v), dim)
		}
	}
	return vectors, nil
}
