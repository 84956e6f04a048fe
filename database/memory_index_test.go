package database

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tieubaoca/mcq-gen-be/types"
)

func chunkFixture(texts ...string) []types.DocumentChunk {
	chunks := make([]types.DocumentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = types.DocumentChunk{Text: text, Page: 1, ChunkID: i + 1, Length: len(text)}
	}
	return chunks
}

func TestMemoryIndexRanking(t *testing.T) {
	index := NewMemoryIndex()
	chunks := chunkFixture("x axis", "y axis", "diagonal")
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{1, 1},
	}
	if err := index.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := index.Search(context.Background(), []float32{2, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.Text != "x axis" {
		t.Errorf("expected best match 'x axis', got %q", results[0].Chunk.Text)
	}
	if results[1].Chunk.Text != "diagonal" {
		t.Errorf("expected second match 'diagonal', got %q", results[1].Chunk.Text)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-5 {
		t.Errorf("expected score 1.0 for identical direction, got %f", results[0].Score)
	}
	if math.Abs(float64(results[1].Score)-math.Sqrt2/2) > 1e-5 {
		t.Errorf("expected score ~0.707 for diagonal, got %f", results[1].Score)
	}
}

func TestMemoryIndexStableTies(t *testing.T) {
	index := NewMemoryIndex()
	chunks := chunkFixture("first", "second", "third")
	vectors := [][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}
	if err := index.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := index.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Chunk.Text != want {
			t.Errorf("tie order broken at %d: got %q, want %q", i, results[i].Chunk.Text, want)
		}
	}
}

func TestMemoryIndexTopKClamp(t *testing.T) {
	index := NewMemoryIndex()
	if err := index.Add(context.Background(), chunkFixture("only"), [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := index.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected clamped result count 1, got %d", len(results))
	}

	results, err = index.Search(context.Background(), []float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search with topK=0: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for topK=0, got %d", len(results))
	}
}

func TestMemoryIndexEmpty(t *testing.T) {
	index := NewMemoryIndex()
	if _, err := index.Search(context.Background(), []float32{1}, 1); !errors.Is(err, types.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	index := NewMemoryIndex()
	err := index.Add(context.Background(), chunkFixture("a", "b"), [][]float32{{1, 0}, {1, 0, 0}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestNormalizeL2(t *testing.T) {
	v := NormalizeL2([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", sum)
	}

	// Zero vectors must not produce NaN.
	zero := NormalizeL2([]float32{0, 0})
	for _, x := range zero {
		if math.IsNaN(float64(x)) {
			t.Fatal("zero vector normalization produced NaN")
		}
	}
}
