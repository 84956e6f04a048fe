package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tieubaoca/mcq-gen-be/config"
	"github.com/tieubaoca/mcq-gen-be/types"
)

// evidenceTextLimit truncates stored evidence text, the full chunk
// still goes into the verification context.
const evidenceTextLimit = 1000

// ValidatorService checks generated questions against the source
// document: first by embedding similarity, then, for questions the
// embeddings cannot support, by asking a model for a verdict.
type ValidatorService struct {
	embedder  Embedder
	aiService AIService
	cfg       config.ValidationConfig
}

func NewValidatorService(embedder Embedder, aiService AIService, cfg config.ValidationConfig) *ValidatorService {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &ValidatorService{
		embedder:  embedder,
		aiService: aiService,
		cfg:       cfg,
	}
}

// ValidateMCQs produces a validation entry per question. A nil
// ModelVerdict in an entry means no verdict could be obtained, which is
// reported as-is rather than treated as a negative answer.
func (v *ValidatorService) ValidateMCQs(ctx context.Context, di *DocumentIndex, mcqs map[string]types.MCQ) (map[string]types.ValidationEntry, error) {
	if di == nil || di.Len() == 0 {
		return nil, types.ErrIndexNotBuilt
	}

	report := make(map[string]types.ValidationEntry, len(mcqs))
	for qid, item := range mcqs {
		statement := strings.TrimSpace(item.MCQ) + " Answer: " + strings.TrimSpace(item.Correct)
		vector, err := v.embedder.Embed(ctx, statement)
		if err != nil {
			return nil, fmt.Errorf("failed to embed statement: %w", err)
		}
		topK := v.cfg.TopK
		if topK > di.Len() {
			topK = di.Len()
		}
		retrieved, err := di.index.Search(ctx, vector, topK)
		if err != nil {
			return nil, err
		}

		var evidence []types.Evidence
		var maxSim float32
		for _, r := range retrieved {
			if r.Score >= v.cfg.EvidenceCutoff {
				text := r.Chunk.Text
				if len(text) > evidenceTextLimit {
					text = text[:evidenceTextLimit] + "..."
				}
				evidence = append(evidence, types.Evidence{
					Page:  r.Chunk.Page,
					Score: r.Score,
					Text:  text,
				})
			}
			if r.Score > maxSim {
				maxSim = r.Score
			}
		}

		entry := types.ValidationEntry{
			SupportedByEmbeddings: maxSim >= v.cfg.SimilarityThreshold,
			MaxSimilarity:         maxSim,
			Evidence:              evidence,
		}
		if !entry.SupportedByEmbeddings && v.cfg.UseModelVerification {
			entry.ModelVerdict = v.verifyWithModel(ctx, item, buildContext(retrieved))
		}
		report[qid] = entry
	}
	return report, nil
}

// verifyWithModel asks for a strict JSON verdict at temperature 0.
// Returns nil when the model fails or answers with garbage.
func (v *ValidatorService) verifyWithModel(ctx context.Context, item types.MCQ, contextText string) *types.ModelVerdict {
	raw, err := v.aiService.CreateCompletion(ctx, ChatRequest{
		System:      verifySystemPrompt(),
		User:        verifyUserPrompt(item.MCQ, item.Options, item.Correct, contextText),
		Temperature: 0,
	})
	if err != nil {
		log.Printf("Warning: model verification failed: %v", err)
		return nil
	}
	verdict, ok := DecodeVerdict(raw)
	if !ok {
		log.Println("Warning: model verification returned no JSON verdict")
		return nil
	}
	return verdict
}
