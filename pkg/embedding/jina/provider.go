package jina

import (
	"context"
	"errors"
	"fmt"

	"pagefiber-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewJinaProvider uses jina-embeddings-v2-base-en, which is 768-dimensional
// like the other providers.
func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-embeddings-v2-base-en",
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	var res embeddingResponse
	err := embedding.PostJSON(ctx, p.baseURL, map[string]string{"Authorization": "Bearer " + p.apiKey}, embeddingRequest{
		Model: p.model,
		Input: []string{text},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("jina: %w", err)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", res.Error.Message)
	}
	if len(res.Data) == 0 {
		return nil, errors.New("jina: empty embeddings")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: res.Data[0].Embedding},
	}, nil
}
