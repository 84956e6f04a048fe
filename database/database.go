package database

import (
	"context"
	"math"

	"github.com/tieubaoca/mcq-gen-be/types"
)

// SearchResult is one chunk ranked by similarity to a query vector.
type SearchResult struct {
	Chunk types.DocumentChunk
	Score float32
}

// VectorIndex stores chunk embeddings and answers similarity queries.
// Implementations must produce the same ranking for the same inputs: the
// in-memory index computes exact inner products over normalized vectors,
// and remote backends are configured for the equivalent cosine distance.
type VectorIndex interface {
	Add(ctx context.Context, chunks []types.DocumentChunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Len() int
}

const normEpsilon = 1e-10

// NormalizeL2 scales v to unit length in place and returns it. Zero
// vectors are left untouched apart from the epsilon guard.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// NormalizeAll normalizes every vector of a batch in place.
func NormalizeAll(vecs [][]float32) [][]float32 {
	for i := range vecs {
		NormalizeL2(vecs[i])
	}
	return vecs
}

// Dot returns the inner product of two vectors. On normalized vectors
// this equals cosine similarity.
func Dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
