package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/mcq-gen-be/service"
	"github.com/tieubaoca/mcq-gen-be/types"
	"github.com/tieubaoca/mcq-gen-be/utils"
)

// GenerateHandler serves the question generation endpoints, one for
// fresh uploads and one for documents already in the vector store.
type GenerateHandler struct {
	pdfService  *services.PDFService
	generator   *services.GeneratorService
	validator   *services.ValidatorService
	scorer      *services.ScorerService
	fileService *services.FileService
	ready       func() bool
}

func NewGenerateHandler(
	pdfService *services.PDFService,
	generator *services.GeneratorService,
	validator *services.ValidatorService,
	scorer *services.ScorerService,
	fileService *services.FileService,
	ready func() bool,
) *GenerateHandler {
	return &GenerateHandler{
		pdfService:  pdfService,
		generator:   generator,
		validator:   validator,
		scorer:      scorer,
		fileService: fileService,
		ready:       ready,
	}
}

// GenerateFromUploadHandler accepts a multipart PDF upload plus
// generation options and responds with the generated questions.
func (h *GenerateHandler) GenerateFromUploadHandler(c *gin.Context) {
	if !h.ready() {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "service not ready",
		})
		return
	}

	var req types.GenerateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid request parameters",
		})
		return
	}
	req.ApplyDefaults()

	di, ok := h.indexFromUpload(c)
	if !ok {
		return
	}
	h.generate(c, di, req)
}

// GenerateWithDifficultyHandler is the upload endpoint variant that
// takes per-difficulty question counts.
func (h *GenerateHandler) GenerateWithDifficultyHandler(c *gin.Context) {
	if !h.ready() {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "service not ready",
		})
		return
	}

	var req types.GenerateDifficultyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid request parameters",
		})
		return
	}
	req.ApplyDefaults()

	di, ok := h.indexFromUpload(c)
	if !ok {
		return
	}
	h.generateDifficulty(c, di, req)
}

// indexFromUpload validates the multipart upload, extracts its pages
// and builds the retrieval index. A false return means the error
// response was already written.
func (h *GenerateHandler) indexFromUpload(c *gin.Context) (*services.DocumentIndex, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "file is required",
		})
		return nil, false
	}
	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".pdf" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "unsupported file type, only PDF is accepted",
		})
		return nil, false
	}

	path, cleanup, err := utils.SaveTempUpload(fileHeader)
	if err != nil {
		log.Printf("Error saving upload: %v", err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to process document",
		})
		return nil, false
	}
	defer cleanup()

	pages, err := h.pdfService.ExtractPages(path)
	if err != nil {
		log.Printf("Error extracting text: %v", err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to process document",
		})
		return nil, false
	}

	di, err := h.generator.BuildDocumentIndex(c.Request.Context(), pages)
	if err != nil {
		h.respondIndexError(c, err)
		return nil, false
	}
	return di, true
}

// GenerateFromSavedHandler generates questions from the persisted
// chunks of a previously uploaded document.
func (h *GenerateHandler) GenerateFromSavedHandler(c *gin.Context) {
	if h.fileService == nil {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "vector store not available",
		})
		return
	}
	if !h.ready() {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "service not ready",
		})
		return
	}

	var req types.GenerateSavedRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid request parameters",
		})
		return
	}
	req.ApplyDefaults()

	di, ok := h.savedIndex(c, req.Filename)
	if !ok {
		return
	}
	h.generate(c, di, req.GenerateRequest)
}

// GenerateSavedWithDifficultyHandler is the saved-document endpoint
// variant that takes per-difficulty question counts.
func (h *GenerateHandler) GenerateSavedWithDifficultyHandler(c *gin.Context) {
	if h.fileService == nil {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "vector store not available",
		})
		return
	}
	if !h.ready() {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "service not ready",
		})
		return
	}

	var req types.GenerateSavedDifficultyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid request parameters",
		})
		return
	}
	req.ApplyDefaults()

	di, ok := h.savedIndex(c, req.Filename)
	if !ok {
		return
	}
	h.generateDifficulty(c, di, req.GenerateDifficultyRequest)
}

// savedIndex loads the persisted chunks of filename and wraps their
// stored vectors as a retrieval index, no re-embedding. A false return
// means the error response was already written.
func (h *GenerateHandler) savedIndex(c *gin.Context, filename string) (*services.DocumentIndex, bool) {
	if filename == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "filename is required",
		})
		return nil, false
	}

	chunks, err := h.fileService.LoadChunks(c.Request.Context(), filename)
	if err != nil {
		log.Printf("Error loading chunks for %s: %v", filename, err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to load document",
		})
		return nil, false
	}
	if len(chunks) == 0 {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  "error",
			Message: "file not found: " + filename,
		})
		return nil, false
	}

	return h.generator.WrapIndex(chunks, h.fileService.IndexFor(filename, len(chunks))), true
}

// generate runs generation plus optional validation and writes the
// response. Fewer questions than requested is still a success.
func (h *GenerateHandler) generate(c *gin.Context, di *services.DocumentIndex, req types.GenerateRequest) {
	mcqs, err := h.generator.Generate(c.Request.Context(), di, req)
	if err != nil {
		log.Printf("Error generating questions: %v", err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to generate questions",
		})
		return
	}
	h.respond(c, di, req, mcqs)
}

func (h *GenerateHandler) generateDifficulty(c *gin.Context, di *services.DocumentIndex, req types.GenerateDifficultyRequest) {
	mcqs, err := h.generator.GenerateWithDifficulty(c.Request.Context(), di, req)
	if err != nil {
		log.Printf("Error generating questions: %v", err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to generate questions",
		})
		return
	}
	h.respond(c, di, req.GenerateRequest, mcqs)
}

// respond optionally validates and scores the generated questions and
// writes the success response. A validation failure does not fail the
// request, the questions ship without a report.
func (h *GenerateHandler) respond(c *gin.Context, di *services.DocumentIndex, req types.GenerateRequest, mcqs map[string]types.MCQ) {
	resp := types.GenerateResponse{MCQs: mcqs}
	if req.Validate && len(mcqs) > 0 {
		validation, err := h.validator.ValidateMCQs(c.Request.Context(), di, mcqs)
		if err != nil {
			log.Printf("Error validating questions: %v", err)
			resp.ValidationError = "validation failed"
		} else {
			resp.Validation = validation
			resp.Quality = h.scorer.ScoreBatch(mcqs, validation)
		}
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   resp,
	})
}

func (h *GenerateHandler) respondIndexError(c *gin.Context, err error) {
	if errors.Is(err, types.ErrNoExtractableText) {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "no text extracted from document",
		})
		return
	}
	log.Printf("Error building index: %v", err)
	c.JSON(http.StatusInternalServerError, types.DataResponse{
		Status:  "error",
		Message: "failed to process document",
	})
}
