package faq

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultEmbeddingModel = "text-embedding-3-small"
	embeddingBatchSize    = 100
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint in batches.
type OpenAIEmbedder struct {
	client embeddingClient
	model  string
}

// NewOpenAIEmbedder wraps an OpenAI client. An empty model selects text-embedding-3-small.
func NewOpenAIEmbedder(client embeddingClient, model string) *OpenAIEmbedder {
	if client == nil {
		panic("faq: embedding client cannot be nil")
	}
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &OpenAIEmbedder{client: client, model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := min(start+embeddingBatchSize, len(texts))
		batch := texts[start:end]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: batch,
		})
		if err != nil {
			return nil, fmt.Errorf("faq: create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("faq: embedding response size mismatch: got %d want %d", len(resp.Data), len(batch))
		}
		vectors := make([][]float32, len(batch))
		for i, item := range resp.Data {
			idx := item.Index
			if idx < 0 || idx >= len(batch) {
				idx = i
			}
			vectors[idx] = item.Embedding
		}
		out = append(out, vectors...)
	}
	return out, nil
}
