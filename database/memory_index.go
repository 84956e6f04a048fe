package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/tieubaoca/mcq-gen-be/types"
)

// MemoryIndex is a brute-force in-memory vector index. Vectors are
// normalized on insert and similarity is the inner product against every
// row, so rankings match a dedicated cosine-distance index. All state is
// request-scoped; the index is built once and then only read.
type MemoryIndex struct {
	dim     int
	chunks  []types.DocumentChunk
	vectors [][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Add(_ context.Context, chunks []types.DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}
	for _, v := range vectors {
		if m.dim == 0 {
			m.dim = len(v)
		}
		if len(v) != m.dim {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v), m.dim)
		}
	}
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, NormalizeAll(vectors)...)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]SearchResult, error) {
	if len(m.vectors) == 0 {
		return nil, types.ErrIndexNotBuilt
	}
	if topK <= 0 {
		return nil, nil
	}
	if topK > len(m.vectors) {
		topK = len(m.vectors)
	}
	query := NormalizeL2(append([]float32(nil), vector...))

	idxs := make([]int, len(m.vectors))
	scores := make([]float32, len(m.vectors))
	for i := range m.vectors {
		idxs[i] = i
		scores[i] = Dot(m.vectors[i], query)
	}
	// Stable sort keeps original chunk order for equal scores.
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	results := make([]SearchResult, 0, topK)
	for _, i := range idxs[:topK] {
		results = append(results, SearchResult{Chunk: m.chunks[i], Score: scores[i]})
	}
	return results, nil
}

func (m *MemoryIndex) Len() int {
	return len(m.chunks)
}

// Chunks returns the indexed chunks in insertion order.
func (m *MemoryIndex) Chunks() []types.DocumentChunk {
	return m.chunks
}
