package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tieubaoca/mcq-gen-be/database"
	"github.com/tieubaoca/mcq-gen-be/types"
)

// minSeedSentenceLen filters out fragments when sampling query seeds.
const minSeedSentenceLen = 20

// GeneratorService turns indexed document chunks into multiple-choice
// questions, either page by page or through retrieval-seeded queries.
type GeneratorService struct {
	pdfService *PDFService
	embedder   Embedder
	aiService  AIService

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGeneratorService creates a generator. A zero seed picks a
// time-based one; tests pass a fixed seed for reproducible sampling.
func NewGeneratorService(pdfService *PDFService, embedder Embedder, aiService AIService, seed int64) *GeneratorService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &GeneratorService{
		pdfService: pdfService,
		embedder:   embedder,
		aiService:  aiService,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// DocumentIndex is the retrieval state for one document: its chunks
// and the vector index built over them.
type DocumentIndex struct {
	chunks []types.DocumentChunk
	index  database.VectorIndex
}

func (d *DocumentIndex) Chunks() []types.DocumentChunk { return d.chunks }

func (d *DocumentIndex) Len() int {
	if d == nil || d.index == nil {
		return 0
	}
	return d.index.Len()
}

// BuildDocumentIndex chunks extracted pages, embeds every chunk and
// loads them into a fresh in-memory index.
func (g *GeneratorService) BuildDocumentIndex(ctx context.Context, pages []string) (*DocumentIndex, error) {
	chunks := g.pdfService.ChunkPages(pages)
	if len(chunks) == 0 {
		return nil, types.ErrNoExtractableText
	}
	return g.IndexChunks(ctx, chunks)
}

// IndexChunks embeds pre-built chunks and indexes them. Used both for
// fresh uploads and for chunks loaded back from the vector store.
func (g *GeneratorService) IndexChunks(ctx context.Context, chunks []types.DocumentChunk) (*DocumentIndex, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	index := database.NewMemoryIndex()
	if err := index.Add(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	return &DocumentIndex{chunks: chunks, index: index}, nil
}

// WrapIndex builds a DocumentIndex over chunks whose vectors already
// live in an external index, skipping re-embedding.
func (g *GeneratorService) WrapIndex(chunks []types.DocumentChunk, index database.VectorIndex) *DocumentIndex {
	return &DocumentIndex{chunks: chunks, index: index}
}

// Retrieve embeds a query and returns its topK nearest chunks.
func (g *GeneratorService) Retrieve(ctx context.Context, di *DocumentIndex, query string, topK int) ([]database.SearchResult, error) {
	vector, err := g.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if topK > len(di.chunks) {
		topK = len(di.chunks)
	}
	return di.index.Search(ctx, vector, topK)
}

// Generate produces up to req.NQuestions questions from the indexed
// document. Fewer questions than requested is a valid outcome; only
// provider failures surface as errors.
func (g *GeneratorService) Generate(ctx context.Context, di *DocumentIndex, req types.GenerateRequest) (map[string]types.MCQ, error) {
	switch req.Mode {
	case types.ModePerPage:
		return g.generatePerPage(ctx, di, req)
	case types.ModeRAG:
		return g.generateRAG(ctx, di, req)
	default:
		return nil, fmt.Errorf("mode must be %q or %q", types.ModePerPage, types.ModeRAG)
	}
}

// GenerateWithDifficulty runs one generation pass per difficulty
// bucket, tags each question with its bucket and renumbers the merged
// batch sequentially. Bucket counts of zero are skipped.
func (g *GeneratorService) GenerateWithDifficulty(ctx context.Context, di *DocumentIndex, req types.GenerateDifficultyRequest) (map[string]types.MCQ, error) {
	buckets := []struct {
		difficulty string
		count      int
	}{
		{types.DifficultyEasy, req.NEasy},
		{types.DifficultyMedium, req.NMedium},
		{types.DifficultyHard, req.NHard},
	}

	output := make(map[string]types.MCQ)
	counter := 0
	for _, bucket := range buckets {
		if bucket.count <= 0 {
			continue
		}
		sub := req.GenerateRequest
		sub.NQuestions = bucket.count
		sub.TargetDifficulty = bucket.difficulty

		mcqs, err := g.Generate(ctx, di, sub)
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(mcqs))
		for key := range mcqs {
			keys = append(keys, key)
		}
		for _, key := range sortKeysNumeric(keys) {
			counter++
			q := mcqs[key]
			q.Difficulty = bucket.difficulty
			output[strconv.Itoa(counter)] = q
		}
	}
	return output, nil
}

func (g *GeneratorService) generatePerPage(ctx context.Context, di *DocumentIndex, req types.GenerateRequest) (map[string]types.MCQ, error) {
	output := make(map[string]types.MCQ)
	qcount := 0
	for _, chunk := range di.chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		block, err := g.requestMCQs(ctx, chunk.Text, req.QuestionsPerPage, req.Temperature, req.TargetDifficulty)
		if err != nil {
			return nil, err
		}
		for _, key := range sortedQuestionKeys(block) {
			qcount++
			output[strconv.Itoa(qcount)] = block[key].Normalize()
			if qcount >= req.NQuestions {
				return output, nil
			}
		}
	}
	return output, nil
}

func (g *GeneratorService) generateRAG(ctx context.Context, di *DocumentIndex, req types.GenerateRequest) (map[string]types.MCQ, error) {
	output := make(map[string]types.MCQ)
	qcount := 0
	attempts := 0
	maxAttempts := req.NQuestions * 4

	for qcount < req.NQuestions && attempts < maxAttempts {
		attempts++
		query := g.sampleQuery(di)
		retrieved, err := g.Retrieve(ctx, di, query, req.TopK)
		if err != nil {
			return nil, err
		}
		// one question per attempt keeps the batch diverse
		block, err := g.requestMCQs(ctx, buildContext(retrieved), 1, req.Temperature, req.TargetDifficulty)
		if err != nil {
			return nil, err
		}
		for _, key := range sortedQuestionKeys(block) {
			qcount++
			output[strconv.Itoa(qcount)] = block[key].Normalize()
			if qcount >= req.NQuestions {
				return output, nil
			}
		}
	}
	return output, nil
}

// requestMCQs asks the model for n questions about source. A provider
// failure is an error; unparseable output is an empty block.
func (g *GeneratorService) requestMCQs(ctx context.Context, source string, n int, temperature float32, difficulty string) (map[string]types.RawMCQ, error) {
	system := mcqSystemPrompt(n)
	if hint := difficultyInstruction(difficulty); hint != "" {
		system += "\n" + hint
	}
	raw, err := g.aiService.CreateCompletion(ctx, ChatRequest{
		System:      system,
		User:        mcqUserPrompt(n, source),
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	block, ok := DecodeMCQBlock(raw)
	if !ok {
		log.Println("Warning: model output produced no usable questions")
		return nil, nil
	}
	return block, nil
}

// sampleQuery picks a random chunk and a random sentence from it to
// seed a retrieval query.
func (g *GeneratorService) sampleQuery(di *DocumentIndex) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	chunk := di.chunks[g.rng.Intn(len(di.chunks))]
	var candidates []string
	for _, sentence := range SplitSentences(chunk.Text) {
		if len(strings.TrimSpace(sentence)) > minSeedSentenceLen {
			candidates = append(candidates, sentence)
		}
	}
	var seed string
	if len(candidates) > 0 {
		seed = candidates[g.rng.Intn(len(candidates))]
	} else {
		seed = strings.TrimSpace(chunk.Text)
		if len(seed) > 200 {
			seed = seed[:200]
		}
	}
	return "Create questions about: " + seed
}

// buildContext joins retrieved chunks into a prompt context, each
// prefixed with its page number.
func buildContext(results []database.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[page %d] %s", r.Chunk.Page, r.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}
