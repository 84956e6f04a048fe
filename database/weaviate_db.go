package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tieubaoca/mcq-gen-be/config"
	"github.com/tieubaoca/mcq-gen-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var (
	CHUNK_CLASS        = "DocumentChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "chunkId", DataType: []string{"int"}},
			{Name: "length", DataType: []string{"int"}},
		},
		// Vectors are computed by our own embedder and supplied on insert.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
	}
)

// WeaviateStore persists document chunks with their embeddings so that a
// file can be ingested once and questions generated from it later.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		err = client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create DocumentChunk class: %v", err)
		}
	}
	return &WeaviateStore{
		client: client,
	}, nil
}

func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete DocumentChunk class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create DocumentChunk class: %v", err)
	}
	return nil
}

// BatchInsertChunks stores all chunks of one file in batches, each with
// its embedding vector.
func (s *WeaviateStore) BatchInsertChunks(ctx context.Context, filename string, chunks []types.DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk count %d does not match embedding count %d", len(chunks), len(embeddings))
	}
	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			properties := map[string]interface{}{
				"content":  chunks[j].Text,
				"filename": filename,
				"page":     chunks[j].Page,
				"chunkId":  chunks[j].ChunkID,
				"length":   chunks[j].Length,
			}
			batcher = batcher.WithObjects(&models.Object{
				Class:      CHUNK_CLASS,
				Properties: properties,
				Vector:     embeddings[j],
			})
		}

		_, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}

		log.Printf("Inserted batch %d-%d of %d chunks for %s", i, end, total, filename)
	}

	return nil
}

// DeleteByFilename removes every stored chunk of one file.
func (s *WeaviateStore) DeleteByFilename(ctx context.Context, filename string) error {
	where := filters.Where().
		WithPath([]string{"filename"}).
		WithOperator(filters.Equal).
		WithValueText(filename)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %v", filename, err)
	}
	return nil
}

// ListFilenames returns the distinct filenames with stored chunks.
func (s *WeaviateStore) ListFilenames(ctx context.Context) ([]string, error) {
	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(graphql.Field{Name: "filename"}).
		WithLimit(10000).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list filenames: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("failed to list filenames: %v", result.Errors[0].Message)
	}

	seen := make(map[string]bool)
	var files []string
	for _, item := range getItems(result.Data) {
		if obj, ok := item.(map[string]interface{}); ok {
			if name, ok := obj["filename"].(string); ok && !seen[name] {
				seen[name] = true
				files = append(files, name)
			}
		}
	}
	return files, nil
}

// ChunksForFilename returns all stored chunks of one file in page and
// chunk order.
func (s *WeaviateStore) ChunksForFilename(ctx context.Context, filename string) ([]types.DocumentChunk, error) {
	where := filters.Where().
		WithPath([]string{"filename"}).
		WithOperator(filters.Equal).
		WithValueText(filename)
	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(chunkFields()...).
		WithWhere(where).
		WithSort(
			graphql.Sort{Path: []string{"page"}, Order: graphql.Asc},
			graphql.Sort{Path: []string{"chunkId"}, Order: graphql.Asc},
		).
		WithLimit(10000).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks for %s: %v", filename, err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("failed to fetch chunks for %s: %v", filename, result.Errors[0].Message)
	}
	return parseChunks(result.Data), nil
}

// SearchByVector runs a nearVector query restricted to one file. Scores
// are certainties, on the same 0-1 cosine scale as the in-memory index.
func (s *WeaviateStore) SearchByVector(ctx context.Context, filename string, vector []float32, topK int) ([]SearchResult, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(NormalizeL2(append([]float32(nil), vector...)))
	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(append(chunkFields(), graphql.Field{
			Name:   "_additional",
			Fields: []graphql.Field{{Name: "distance"}},
		})...).
		WithNearVector(nearVector)
	if filename != "" {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"filename"}).
			WithOperator(filters.Equal).
			WithValueText(filename))
	}
	if topK > 0 {
		getBuilder = getBuilder.WithLimit(topK)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var results []SearchResult
	for _, item := range getItems(result.Data) {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		res := SearchResult{Chunk: parseChunk(obj)}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				// cosine distance = 1 - cosine similarity
				res.Score = float32(1 - distance)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// WeaviateIndex adapts the store to the VectorIndex capability, scoped
// to one filename. It is the remote counterpart of MemoryIndex.
type WeaviateIndex struct {
	store    *WeaviateStore
	filename string
	count    int
}

// NewWeaviateIndex wraps the stored chunks of one file as a searchable
// index. count is the number of chunks already stored, zero for a
// fresh file.
func NewWeaviateIndex(store *WeaviateStore, filename string, count int) *WeaviateIndex {
	return &WeaviateIndex{store: store, filename: filename, count: count}
}

func (w *WeaviateIndex) Add(ctx context.Context, chunks []types.DocumentChunk, vectors [][]float32) error {
	if err := w.store.BatchInsertChunks(ctx, w.filename, chunks, NormalizeAll(vectors)); err != nil {
		return err
	}
	w.count += len(chunks)
	return nil
}

func (w *WeaviateIndex) Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	if w.count > 0 && topK > w.count {
		topK = w.count
	}
	return w.store.SearchByVector(ctx, w.filename, vector, topK)
}

func (w *WeaviateIndex) Len() int {
	return w.count
}

func chunkFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "filename"},
		{Name: "page"},
		{Name: "chunkId"},
		{Name: "length"},
	}
}

func getItems(data map[string]models.JSONObject) []interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, _ := get[CHUNK_CLASS].([]interface{})
	return items
}

func parseChunks(data map[string]models.JSONObject) []types.DocumentChunk {
	var chunks []types.DocumentChunk
	for _, item := range getItems(data) {
		if obj, ok := item.(map[string]interface{}); ok {
			chunks = append(chunks, parseChunk(obj))
		}
	}
	return chunks
}

func parseChunk(obj map[string]interface{}) types.DocumentChunk {
	chunk := types.DocumentChunk{}
	if v, ok := obj["content"].(string); ok {
		chunk.Text = v
	}
	if v, ok := obj["page"].(float64); ok {
		chunk.Page = int(v)
	}
	if v, ok := obj["chunkId"].(float64); ok {
		chunk.ChunkID = int(v)
	}
	if v, ok := obj["length"].(float64); ok {
		chunk.Length = int(v)
	}
	return chunk
}
