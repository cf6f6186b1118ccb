// Package embeddings maps text to fixed-length vectors through a pluggable
// provider. Embedding a query is a blocking remote call; callers pass a
// context and must expect cancellation, not treat it as a CPU hot path.
package embeddings

import "context"

// Provider computes an embedding vector for a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}
