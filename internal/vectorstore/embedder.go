package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for clause store operations.
var (
	// ErrUnavailable indicates the embedding model failed to initialize.
	// The store stays constructed but reports itself unavailable; callers
	// treat similarity as an optional capability.
	ErrUnavailable = errors.New("similarity engine unavailable")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIntegrity indicates persisted artifacts disagree with each other.
	ErrIntegrity = errors.New("snapshot integrity violation")

	// ErrPersistence indicates a failure writing or reading snapshot
	// artifacts.
	ErrPersistence = errors.New("snapshot persistence failed")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local ONNX
// models (FastEmbed) or an external TEI service.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
