// Package embeddings provides text-embedding generation for clause
// similarity via multiple providers.
//
// Supports FastEmbed (local ONNX) and TEI (external service) providers.
// Factory pattern enables provider selection at runtime with automatic
// dimension detection for common models. Provider initialization failure
// is not fatal to the host process: the similarity engine treats a missing
// provider as an unavailable component.
package embeddings
