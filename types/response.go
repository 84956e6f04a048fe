package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// GenerateResponse maps stringified sequential indexes ("1", "2", ...)
// to normalized questions, with an optional parallel validation report.
// ValidationError notes a validation failure that did not stop the
// questions from being delivered.
type GenerateResponse struct {
	MCQs            map[string]MCQ             `json:"mcqs"`
	Validation      map[string]ValidationEntry `json:"validation,omitempty"`
	Quality         *BatchQuality              `json:"quality,omitempty"`
	ValidationError string                     `json:"validation_error,omitempty"`
}

type UploadResponse struct {
	Files []UploadedFile `json:"files"`
}

type UploadedFile struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ListFilesResponse struct {
	Files []string `json:"files"`
}
