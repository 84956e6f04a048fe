package types

import "errors"

var (
	// ErrNoExtractableText means the PDF parsed fine but contained no text.
	ErrNoExtractableText = errors.New("no text extracted from document")
	// ErrUnsupportedFileType means the upload was not a PDF.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrServiceNotReady means the pipeline services are still initializing.
	ErrServiceNotReady = errors.New("service not ready")
	// ErrIndexNotBuilt means retrieval was attempted before indexing.
	ErrIndexNotBuilt = errors.New("document index not built")
)
