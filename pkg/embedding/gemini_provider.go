package embedding

import (
	"context"
	"fmt"
)

const geminiModel = "text-embedding-004"

type GeminiProvider struct {
	ApiKey  string
	BaseURL string
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1",
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"task_type,omitempty"`
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, geminiModel)

	var res EmbeddingResponse
	err := PostJSON(ctx, endpoint, map[string]string{"x-goog-api-key": p.ApiKey}, geminiRequest{
		Model:    geminiModel,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: taskType,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &res, nil
}
