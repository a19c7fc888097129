package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	got := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func TestOllamaProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)
		w.Write([]byte(`{"embedding":[0,2,0]}`))
	}))
	defer srv.Close()

	res, err := NewOllamaProvider(srv.URL+"/", "").Generate(context.Background(), "hello", TaskRetrievalDocument)

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, res.Embedding.Values)
}

func TestGeminiProviderSendsKeyAndTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskRetrievalQuery, req.TaskType)
		w.Write([]byte(`{"embedding":{"values":[0.5,0.5]}}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{ApiKey: "secret", BaseURL: srv.URL}
	res, err := p.Generate(context.Background(), "q", TaskRetrievalQuery)

	require.NoError(t, err)
	assert.Len(t, res.Embedding.Values, 2)
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "x", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
