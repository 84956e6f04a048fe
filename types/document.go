package types

// DocumentChunk is one retrieval unit produced by chunking a page.
type DocumentChunk struct {
	Text    string `json:"text"`
	Page    int    `json:"page"`     // 1-based page the chunk came from
	ChunkID int    `json:"chunk_id"` // 1-based position within the page
	Length  int    `json:"length"`
}

// DocumentServiceConfig contains configuration options for PDF processing
type DocumentServiceConfig struct {
	MaxChunkChars int // Maximum number of characters per chunk
}

// StoredDocument is a chunk persisted in the vector database together
// with the file it belongs to.
type StoredDocument struct {
	Filename string        `json:"filename"`
	Chunk    DocumentChunk `json:"chunk"`
}
