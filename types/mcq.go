package types

// RawMCQ is one question exactly as the model returns it. The answer is
// the full text of the correct option, never the option key.
type RawMCQ struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Answer   string            `json:"answer"`
}

// MCQ is the normalized view returned at the API boundary. Difficulty
// is only set by the difficulty-bucketed endpoints.
type MCQ struct {
	MCQ        string            `json:"mcq"`
	Options    map[string]string `json:"options"`
	Correct    string            `json:"correct"`
	Difficulty string            `json:"_difficulty,omitempty"`
}

// Normalize reshapes a raw question into the API form.
func (q RawMCQ) Normalize() MCQ {
	return MCQ{
		MCQ:     q.Question,
		Options: q.Options,
		Correct: q.Answer,
	}
}

// Evidence is one retrieved chunk supporting (or failing to support) a question.
type Evidence struct {
	Page  int     `json:"page"`
	Score float32 `json:"score"`
	Text  string  `json:"text"`
}

// ModelVerdict is the structured answer of the verification model.
type ModelVerdict struct {
	Supported  bool    `json:"supported"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	Reason     string  `json:"reason"`
}

// ValidationEntry reports how well one MCQ is grounded in the source
// document. ModelVerdict is nil when no verdict could be obtained, which
// is not the same as a negative verdict.
type ValidationEntry struct {
	SupportedByEmbeddings bool          `json:"supported_by_embeddings"`
	MaxSimilarity         float32       `json:"max_similarity"`
	Evidence              []Evidence    `json:"evidence"`
	ModelVerdict          *ModelVerdict `json:"model_verdict"`
}

// QualityReport scores one validated question on a 0-100 scale.
type QualityReport struct {
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Decision string  `json:"decision"`
}

// BatchQuality aggregates quality reports over one generation batch.
type BatchQuality struct {
	Questions    map[string]QualityReport `json:"questions"`
	AverageScore float64                  `json:"average_score"`
	PassRate     float64                  `json:"pass_rate"`
	Approved     int                      `json:"approved"`
	NeedsReview  int                      `json:"needs_review"`
	Rejected     int                      `json:"rejected"`
}
