package types

const (
	ModeRAG     = "rag"
	ModePerPage = "per_page"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// GenerateRequest carries the generation options accepted by the
// generate endpoints. Bound from multipart form fields.
// TargetDifficulty is set internally by the difficulty endpoints, not
// by clients.
type GenerateRequest struct {
	NQuestions       int     `form:"n_questions"`
	Mode             string  `form:"mode"`
	QuestionsPerPage int     `form:"questions_per_page"`
	TopK             int     `form:"top_k"`
	Temperature      float32 `form:"temperature"`
	Validate         bool    `form:"validate"`
	TargetDifficulty string  `form:"-"`
}

// ApplyDefaults fills unset fields with the original defaults.
func (r *GenerateRequest) ApplyDefaults() {
	if r.NQuestions <= 0 {
		r.NQuestions = 10
	}
	if r.Mode == "" {
		r.Mode = ModeRAG
	}
	if r.QuestionsPerPage <= 0 {
		r.QuestionsPerPage = 5
	}
	if r.TopK <= 0 {
		r.TopK = 3
	}
	if r.Temperature <= 0 {
		r.Temperature = 0.2
	}
}

// GenerateSavedRequest generates questions from chunks already stored in
// the vector database instead of a fresh upload.
type GenerateSavedRequest struct {
	Filename string `form:"filename"`
	GenerateRequest
}

// GenerateDifficultyRequest asks for a fixed number of questions per
// difficulty level instead of one flat count.
type GenerateDifficultyRequest struct {
	NEasy   int `form:"n_easy_questions"`
	NMedium int `form:"n_medium_questions"`
	NHard   int `form:"n_hard_questions"`
	GenerateRequest
}

// ApplyDefaults fills the per-difficulty counts with the original
// defaults when none are given. A request naming any count keeps its
// zeros, so single difficulties can be switched off.
func (r *GenerateDifficultyRequest) ApplyDefaults() {
	if r.NEasy <= 0 && r.NMedium <= 0 && r.NHard <= 0 {
		r.NEasy, r.NMedium, r.NHard = 3, 5, 2
	}
	r.GenerateRequest.ApplyDefaults()
}

// GenerateSavedDifficultyRequest is the difficulty-bucketed variant of
// GenerateSavedRequest.
type GenerateSavedDifficultyRequest struct {
	Filename string `form:"filename"`
	GenerateDifficultyRequest
}

// UploadRequest carries metadata for ingesting PDFs into the vector store.
type UploadRequest struct {
	FilenamePrefix string `form:"filename_prefix"`
	Overwrite      bool   `form:"overwrite"`
}
