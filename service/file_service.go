package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tieubaoca/mcq-gen-be/database"
	"github.com/tieubaoca/mcq-gen-be/types"
)

// FileService stores uploaded PDFs on disk and their chunks in the
// vector store, so questions can later be generated without re-uploading.
type FileService struct {
	uploadDir  string
	vectorDB   *database.WeaviateStore
	pdfService *PDFService
	embedder   Embedder
}

func NewFileService(
	uploadDir string,
	vectorDB *database.WeaviateStore,
	pdfService *PDFService,
	embedder Embedder,
) *FileService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		panic(err)
	}
	return &FileService{
		uploadDir:  uploadDir,
		vectorDB:   vectorDB,
		pdfService: pdfService,
		embedder:   embedder,
	}
}

// IngestFile saves one uploaded PDF and persists its chunks with their
// embeddings. Returns the stored filename and the number of chunks.
func (s *FileService) IngestFile(ctx context.Context, file *multipart.FileHeader, req types.UploadRequest) (string, int, error) {
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		return "", 0, fmt.Errorf("%w: %s", types.ErrUnsupportedFileType, filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	filename := storedFilename(file.Filename, req.FilenamePrefix)
	destPath := filepath.Join(s.uploadDir, filename)
	dst, err := os.Create(destPath)
	if err != nil {
		return "", 0, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", 0, err
	}
	dst.Close()

	if req.Overwrite {
		if err := s.vectorDB.DeleteByFilename(ctx, filename); err != nil {
			return "", 0, err
		}
	}

	count, err := s.IngestPath(ctx, destPath, filename)
	if err != nil {
		return "", 0, err
	}
	return filename, count, nil
}

// IngestPath extracts, chunks, embeds and persists a PDF already on
// disk under the given stored filename. Used by the CLI ingest command.
func (s *FileService) IngestPath(ctx context.Context, path, filename string) (int, error) {
	pages, err := s.pdfService.ExtractPages(path)
	if err != nil {
		return 0, err
	}
	chunks := s.pdfService.ChunkPages(pages)
	if len(chunks) == 0 {
		return 0, types.ErrNoExtractableText
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := s.vectorDB.BatchInsertChunks(ctx, filename, chunks, database.NormalizeAll(vectors)); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IndexFor returns a retrieval index over the already-embedded chunks
// of a stored file.
func (s *FileService) IndexFor(filename string, count int) database.VectorIndex {
	return database.NewWeaviateIndex(s.vectorDB, filename, count)
}

// ListFiles returns the stored filenames known to the vector store.
func (s *FileService) ListFiles(ctx context.Context) ([]string, error) {
	return s.vectorDB.ListFilenames(ctx)
}

// LoadChunks reads the persisted chunks of a stored file back, in page
// and chunk order.
func (s *FileService) LoadChunks(ctx context.Context, filename string) ([]types.DocumentChunk, error) {
	return s.vectorDB.ChunksForFilename(ctx, filename)
}

// FilePath resolves a stored filename inside the upload directory. It
// rejects names that would escape it.
func (s *FileService) FilePath(filename string) (string, error) {
	if filename != filepath.Base(filename) || filename == "." || filename == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	path := filepath.Join(s.uploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// storedFilename builds "name_timestamp.pdf", optionally prefixed, with
// unsafe characters replaced.
func storedFilename(original, prefix string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	if prefix != "" {
		base = prefix + "_" + base
	}
	filename := fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, filename)
}
