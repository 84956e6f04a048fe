package service

import (
	"fmt"
	"math"

	"github.com/tieubaoca/mcq-gen-be/types"
)

// Quality categories and decisions on the 0-100 validation scale.
const (
	CategoryExcellent    = "EXCELLENT"
	CategoryGood         = "GOOD"
	CategoryAcceptable   = "ACCEPTABLE"
	CategoryQuestionable = "QUESTIONABLE"
	CategoryPoor         = "POOR"

	DecisionApprove            = "APPROVE"
	DecisionApproveWithReview  = "APPROVE_WITH_REVIEW"
	DecisionConditionalApprove = "CONDITIONAL_APPROVE"
	DecisionReviewRequired     = "REVIEW_REQUIRED"
	DecisionReject             = "REJECT"
)

// ScorerConfig holds the component weights and category thresholds of
// the quality scorer. Weights must sum to 1, thresholds must ascend.
type ScorerConfig struct {
	EmbeddingWeight float64
	ModelWeight     float64
	EvidenceWeight  float64

	ExcellentThreshold    float64
	GoodThreshold         float64
	AcceptableThreshold   float64
	QuestionableThreshold float64
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		EmbeddingWeight:       0.4,
		ModelWeight:           0.5,
		EvidenceWeight:        0.1,
		ExcellentThreshold:    85,
		GoodThreshold:         70,
		AcceptableThreshold:   55,
		QuestionableThreshold: 40,
	}
}

func (c ScorerConfig) validate() error {
	sum := c.EmbeddingWeight + c.ModelWeight + c.EvidenceWeight
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scorer weights must sum to 1.0, got %.3f", sum)
	}
	if !(c.QuestionableThreshold < c.AcceptableThreshold &&
		c.AcceptableThreshold < c.GoodThreshold &&
		c.GoodThreshold < c.ExcellentThreshold) {
		return fmt.Errorf("scorer thresholds must be in ascending order")
	}
	return nil
}

// ScorerService turns validation entries into 0-100 quality scores
// with a category and an actionable decision per question.
type ScorerService struct {
	cfg ScorerConfig
}

func NewScorerService(cfg ScorerConfig) (*ScorerService, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &ScorerService{cfg: cfg}, nil
}

// Score computes the weighted quality score of one validated question.
func (s *ScorerService) Score(entry types.ValidationEntry) float64 {
	total := s.embeddingScore(entry)*s.cfg.EmbeddingWeight*100 +
		s.modelScore(entry.ModelVerdict)*s.cfg.ModelWeight*100 +
		s.evidenceScore(entry.Evidence)*s.cfg.EvidenceWeight*100
	return math.Min(100, math.Max(0, total))
}

// embeddingScore scales similarity to 87.5% of the component and grants
// a 12.5% bonus when the threshold was met.
func (s *ScorerService) embeddingScore(entry types.ValidationEntry) float64 {
	score := float64(entry.MaxSimilarity) * 0.875
	if entry.SupportedByEmbeddings {
		score += 0.125
	}
	return score
}

// modelScore gives supported verdicts 50% base plus confidence, caps
// unsupported verdicts at 30%, and scores a missing verdict as zero.
func (s *ScorerService) modelScore(verdict *types.ModelVerdict) float64 {
	if verdict == nil {
		return 0
	}
	if !verdict.Supported {
		return verdict.Confidence * 0.3
	}
	return 0.5 + verdict.Confidence*0.5
}

// evidenceScore combines evidence quantity (4 pieces saturate it) with
// the average retrieval score of the evidence.
func (s *ScorerService) evidenceScore(evidence []types.Evidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	quantity := math.Min(0.5, float64(len(evidence))*0.125)
	var sum float64
	for _, e := range evidence {
		sum += float64(e.Score)
	}
	quality := sum / float64(len(evidence)) * 0.5
	return quantity + quality
}

func (s *ScorerService) category(score float64) string {
	switch {
	case score >= s.cfg.ExcellentThreshold:
		return CategoryExcellent
	case score >= s.cfg.GoodThreshold:
		return CategoryGood
	case score >= s.cfg.AcceptableThreshold:
		return CategoryAcceptable
	case score >= s.cfg.QuestionableThreshold:
		return CategoryQuestionable
	default:
		return CategoryPoor
	}
}

func (s *ScorerService) decision(score float64, entry types.ValidationEntry) string {
	switch {
	case score >= s.cfg.ExcellentThreshold:
		return DecisionApprove
	case score >= s.cfg.GoodThreshold:
		return DecisionApproveWithReview
	case score >= s.cfg.AcceptableThreshold:
		if entry.ModelVerdict != nil && entry.ModelVerdict.Supported && entry.ModelVerdict.Confidence >= 0.8 {
			return DecisionConditionalApprove
		}
		return DecisionReviewRequired
	default:
		return DecisionReject
	}
}

// ScoreBatch scores every validated question and aggregates the batch
// summary. Questions missing from the validation report are skipped.
func (s *ScorerService) ScoreBatch(mcqs map[string]types.MCQ, validation map[string]types.ValidationEntry) *types.BatchQuality {
	batch := &types.BatchQuality{
		Questions: make(map[string]types.QualityReport, len(validation)),
	}
	var total float64
	for qid, entry := range validation {
		if _, ok := mcqs[qid]; !ok {
			continue
		}
		score := s.Score(entry)
		decision := s.decision(score, entry)
		batch.Questions[qid] = types.QualityReport{
			Score:    score,
			Category: s.category(score),
			Decision: decision,
		}
		total += score
		switch decision {
		case DecisionApprove, DecisionApproveWithReview, DecisionConditionalApprove:
			batch.Approved++
		case DecisionReviewRequired:
			batch.NeedsReview++
		default:
			batch.Rejected++
		}
	}
	if n := len(batch.Questions); n > 0 {
		batch.AverageScore = total / float64(n)
		batch.PassRate = float64(batch.Approved) / float64(n)
	}
	return batch
}
