package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantError bool
	}{
		{
			name: "tei provider with valid config",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080",
				Model:    "BAAI/bge-small-en-v1.5",
			},
		},
		{
			name: "tei provider without base URL",
			cfg: ProviderConfig{
				Provider: "tei",
				Model:    "BAAI/bge-small-en-v1.5",
			},
			wantError: true,
		},
		{
			name:      "unknown provider",
			cfg:       ProviderConfig{Provider: "unknown"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if provider != nil {
				provider.Close()
			}
		})
	}
}

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"BAAI/bge-small-en-v1.5", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"some-large-model", 1024},
		{"totally-unknown", 384},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectDimensionFromModel(tt.model), tt.model)
	}
}

func TestTEIServiceEmbeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Model: "test"})
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "terminate with notice")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	vecs, err := svc.EmbedDocuments(context.Background(), []string{"a clause"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
