package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/mcq-gen-be/service"
	"github.com/tieubaoca/mcq-gen-be/types"
)

type UploadHandler struct {
	fileService *services.FileService
}

func NewUploadHandler(fileService *services.FileService) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
	}
}

const maxUploadSize = 50 << 20

// UploadDocumentsHandler ingests one or more PDFs into the vector
// store. Failures are reported per file so one bad PDF does not sink
// the batch.
func (h *UploadHandler) UploadDocumentsHandler(c *gin.Context) {
	if h.fileService == nil {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "vector store not available",
		})
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid multipart form",
		})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "no files uploaded",
		})
		return
	}

	var req types.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "invalid upload parameters",
		})
		return
	}

	ctx := c.Request.Context()
	results := make([]types.UploadedFile, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxUploadSize {
			results = append(results, types.UploadedFile{
				Filename: fileHeader.Filename,
				Error:    "file too large",
			})
			continue
		}
		filename, count, err := h.fileService.IngestFile(ctx, fileHeader, req)
		if err != nil {
			log.Printf("Error ingesting %s: %v", fileHeader.Filename, err)
			results = append(results, types.UploadedFile{
				Filename: fileHeader.Filename,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, types.UploadedFile{
			Filename: filename,
			Chunks:   count,
		})
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   types.UploadResponse{Files: results},
	})
}

// ListFilesHandler returns the stored filenames known to the vector store.
func (h *UploadHandler) ListFilesHandler(c *gin.Context) {
	if h.fileService == nil {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "vector store not available",
		})
		return
	}
	files, err := h.fileService.ListFiles(c.Request.Context())
	if err != nil {
		log.Printf("Error listing files: %v", err)
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "failed to list files",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   types.ListFilesResponse{Files: files},
	})
}
