package faq

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubEmbeddingClient struct {
	calls [][]string
	err   error
}

func (s *stubEmbeddingClient) CreateEmbeddings(_ context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if s.err != nil {
		return openai.EmbeddingResponse{}, s.err
	}
	er, ok := req.(openai.EmbeddingRequest)
	if !ok {
		return openai.EmbeddingResponse{}, errors.New("unexpected request type")
	}
	inputs := er.Input.([]string)
	s.calls = append(s.calls, inputs)
	resp := openai.EmbeddingResponse{}
	for i := len(inputs) - 1; i >= 0; i-- {
		resp.Data = append(resp.Data, openai.Embedding{Index: i, Embedding: []float32{float32(len(inputs[i])), 1}})
	}
	return resp, nil
}

func TestOpenAIEmbedderBatchesAndOrders(t *testing.T) {
	client := &stubEmbeddingClient{}
	e := NewOpenAIEmbedder(client, "")

	texts := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		texts = append(texts, string(make([]byte, i%7)))
	}
	vectors, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(client.calls) != 2 || len(client.calls[0]) != 100 || len(client.calls[1]) != 50 {
		t.Fatalf("unexpected batching: %d calls", len(client.calls))
	}
	if len(vectors) != 150 {
		t.Fatalf("expected 150 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if int(v[0]) != i%7 {
			t.Fatalf("vector %d out of order: %v", i, v)
		}
	}
}

func TestOpenAIEmbedderWrapsErrors(t *testing.T) {
	boom := errors.New("rate limited")
	e := NewOpenAIEmbedder(&stubEmbeddingClient{err: boom}, "text-embedding-3-small")
	if _, err := e.Embed(context.Background(), []string{"hi"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors: %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: %f", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
		t.Fatalf("mismatched length: %f", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector: %f", got)
	}
}

func TestEmbeddingCacheKeyedByVersion(t *testing.T) {
	c := NewEmbeddingCache()
	idx := &Index{vectors: [][]float32{{1}}, answers: []string{"a"}}
	c.Put("v1", idx)

	if got, ok := c.Get("v1"); !ok || got != idx {
		t.Fatalf("expected hit for v1")
	}
	if _, ok := c.Get("v2"); ok {
		t.Fatalf("expected miss for v2")
	}
	c.Invalidate()
	if _, ok := c.Get("v1"); ok || c.Version() != "" {
		t.Fatalf("expected empty cache after invalidate")
	}
}
