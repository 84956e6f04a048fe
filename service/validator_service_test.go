package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tieubaoca/mcq-gen-be/config"
	"github.com/tieubaoca/mcq-gen-be/database"
	"github.com/tieubaoca/mcq-gen-be/types"
)

func testValidationConfig() config.ValidationConfig {
	return config.ValidationConfig{
		SimilarityThreshold:  0.5,
		EvidenceCutoff:       0.5,
		TopK:                 4,
		UseModelVerification: true,
	}
}

// buildIndexWithVectors creates a document index where every chunk text
// maps to a fixed vector through the fake embedder.
func buildIndexWithVectors(t *testing.T, embedder *fakeEmbedder, texts []string) *DocumentIndex {
	t.Helper()
	chunks := make([]types.DocumentChunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = types.DocumentChunk{Text: text, Page: i + 1, ChunkID: 1, Length: len(text)}
		vectors[i] = embedder.vector(text)
	}
	index := database.NewMemoryIndex()
	if err := index.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return &DocumentIndex{chunks: chunks, index: index}
}

func TestValidateMCQsSupportedByEmbeddings(t *testing.T) {
	mcq := types.MCQ{
		MCQ:     "What produces energy in the cell?",
		Options: map[string]string{"a": "mitochondria", "b": "nucleus", "c": "ribosome", "d": "membrane"},
		Correct: "mitochondria",
	}
	statement := mcq.MCQ + " Answer: " + mcq.Correct
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		statement:              {1, 0, 0},
		"chunk about energy":   {1, 0, 0},
		"unrelated chunk text": {0, 1, 0},
	}}
	di := buildIndexWithVectors(t, embedder, []string{"chunk about energy", "unrelated chunk text"})

	ai := &fakeAI{responses: []string{`{"supported": true, "confidence": 1.0, "evidence": "", "reason": ""}`}}
	v := NewValidatorService(embedder, ai, testValidationConfig())
	report, err := v.ValidateMCQs(context.Background(), di, map[string]types.MCQ{"1": mcq})
	if err != nil {
		t.Fatalf("ValidateMCQs: %v", err)
	}

	entry := report["1"]
	if !entry.SupportedByEmbeddings {
		t.Error("expected embedding support")
	}
	if entry.MaxSimilarity < 0.99 {
		t.Errorf("expected similarity near 1, got %f", entry.MaxSimilarity)
	}
	if len(entry.Evidence) == 0 {
		t.Error("expected evidence above cutoff")
	}
	if entry.ModelVerdict != nil {
		t.Error("supported questions should skip model verification")
	}
	if len(ai.requests) != 0 {
		t.Errorf("expected no model calls, got %d", len(ai.requests))
	}
}

func TestValidateMCQsUnsupportedTriggersModel(t *testing.T) {
	mcq := types.MCQ{
		MCQ:     "Who wrote the report?",
		Options: map[string]string{"a": "Alice", "b": "Bob", "c": "Carol", "d": "Dan"},
		Correct: "Alice",
	}
	statement := mcq.MCQ + " Answer: " + mcq.Correct
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		statement:    {1, 0, 0},
		"chunk text": {0, 1, 0},
	}}
	di := buildIndexWithVectors(t, embedder, []string{"chunk text"})

	ai := &fakeAI{responses: []string{`{"supported": false, "confidence": 0.8, "evidence": "", "reason": "no mention"}`}}
	v := NewValidatorService(embedder, ai, testValidationConfig())
	report, err := v.ValidateMCQs(context.Background(), di, map[string]types.MCQ{"1": mcq})
	if err != nil {
		t.Fatalf("ValidateMCQs: %v", err)
	}

	entry := report["1"]
	if entry.SupportedByEmbeddings {
		t.Error("expected no embedding support for orthogonal vectors")
	}
	if len(entry.Evidence) != 0 {
		t.Errorf("expected no evidence below cutoff, got %d", len(entry.Evidence))
	}
	if entry.ModelVerdict == nil {
		t.Fatal("expected a model verdict")
	}
	if entry.ModelVerdict.Supported || entry.ModelVerdict.Confidence != 0.8 {
		t.Errorf("unexpected verdict: %+v", entry.ModelVerdict)
	}
	if len(ai.requests) != 1 {
		t.Fatalf("expected 1 verification call, got %d", len(ai.requests))
	}
	if ai.requests[0].Temperature != 0 {
		t.Errorf("verification must run at temperature 0, got %f", ai.requests[0].Temperature)
	}
}

func TestValidateMCQsGarbageVerdictIsNil(t *testing.T) {
	mcq := types.MCQ{
		MCQ:     "Question?",
		Options: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		Correct: "1",
	}
	statement := mcq.MCQ + " Answer: " + mcq.Correct
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		statement:    {1, 0, 0},
		"chunk text": {0, 1, 0},
	}}
	di := buildIndexWithVectors(t, embedder, []string{"chunk text"})

	ai := &fakeAI{responses: []string{"I think it looks fine."}}
	v := NewValidatorService(embedder, ai, testValidationConfig())
	report, err := v.ValidateMCQs(context.Background(), di, map[string]types.MCQ{"1": mcq})
	if err != nil {
		t.Fatalf("ValidateMCQs: %v", err)
	}
	if report["1"].ModelVerdict != nil {
		t.Error("unparseable verdict must stay nil, not default to false")
	}
}

func TestValidateMCQsEvidenceTruncation(t *testing.T) {
	longChunk := strings.Repeat("evidence text ", 100)
	mcq := types.MCQ{
		MCQ:     "Q?",
		Options: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		Correct: "1",
	}
	statement := mcq.MCQ + " Answer: " + mcq.Correct
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		statement: {1, 0, 0},
		longChunk: {1, 0, 0},
	}}
	di := buildIndexWithVectors(t, embedder, []string{longChunk})

	v := NewValidatorService(embedder, &fakeAI{responses: []string{""}}, testValidationConfig())
	report, err := v.ValidateMCQs(context.Background(), di, map[string]types.MCQ{"1": mcq})
	if err != nil {
		t.Fatalf("ValidateMCQs: %v", err)
	}
	evidence := report["1"].Evidence
	if len(evidence) != 1 {
		t.Fatalf("expected 1 evidence entry, got %d", len(evidence))
	}
	if !strings.HasSuffix(evidence[0].Text, "...") {
		t.Error("long evidence text should be truncated with ellipsis")
	}
	if len(evidence[0].Text) != evidenceTextLimit+3 {
		t.Errorf("expected %d chars, got %d", evidenceTextLimit+3, len(evidence[0].Text))
	}
}

func TestValidateMCQsNoIndex(t *testing.T) {
	v := NewValidatorService(&fakeEmbedder{}, &fakeAI{responses: []string{""}}, testValidationConfig())
	_, err := v.ValidateMCQs(context.Background(), nil, map[string]types.MCQ{})
	if !errors.Is(err, types.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}
