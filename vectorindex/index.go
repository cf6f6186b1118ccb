// Package vectorindex persists chunk vectors and serves nearest-neighbor
// retrieval. A named collection isolates one corpus snapshot from another;
// the query path never writes, so reads are safe to run concurrently.
package vectorindex

import (
	"context"
	"math"

	"github.com/cotin/chatcotin/models"
)

// Index is one named collection of chunk vectors.
type Index interface {
	// Upsert appends chunks and their vectors. Chunks are append-only
	// records; re-ingestion replaces the whole collection instead of
	// updating in place.
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	// Query returns the k nearest chunks ordered by similarity descending.
	Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalCandidate, error)
	Count(ctx context.Context) (int, error)
}

// Store manages named collections within one index backend.
type Store interface {
	// Collection opens the named collection, creating it when absent.
	Collection(ctx context.Context, name string) (Index, error)
	// Drop removes a collection. Dropping a missing collection is not an
	// error.
	Drop(ctx context.Context, name string) error
}

// Cosine returns the cosine similarity of two vectors. The same metric is
// used at index-build and query time.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
