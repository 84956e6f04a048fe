/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/mcq-gen-be/config"
	"github.com/tieubaoca/mcq-gen-be/database"
	"github.com/tieubaoca/mcq-gen-be/handler"
	"github.com/tieubaoca/mcq-gen-be/service"
	"github.com/tieubaoca/mcq-gen-be/types"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the question generation server",
	Long:  `Starts the HTTP server that generates multiple-choice questions from PDF documents`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		// Initialize services
		pdfService := service.NewPDFService(types.DocumentServiceConfig{
			MaxChunkChars: cfg.Generation.MaxChunkChars,
		})

		var aiService service.AIService
		switch cfg.AIProvider {
		case "gemini":
			aiService, err = service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
			if err != nil {
				log.Fatalf("Failed to initialize Gemini service: %v", err)
			}
		default:
			aiService = service.NewOpenAICompatService(
				cfg.AIEndpoint,
				cfg.OpenAIAPIKey,
				cfg.Model,
				cfg.Generation.RequestTimeout,
				cfg.Generation.MaxRetries,
			)
		}

		embedder := service.NewOpenAIEmbedder(cfg.EmbedderEndpoint, cfg.EmbedderAPIKey, cfg.EmbedderModel)
		generator := service.NewGeneratorService(pdfService, embedder, aiService, 0)
		validator := service.NewValidatorService(embedder, aiService, cfg.Validation)
		scorer, err := service.NewScorerService(service.DefaultScorerConfig())
		if err != nil {
			log.Fatalf("Failed to initialize scorer: %v", err)
		}

		// The vector store is optional, without it only the plain
		// generate endpoint is served.
		var fileService *service.FileService
		if cfg.WeaviateStoreConfig.Host != "" {
			weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
			if err != nil {
				log.Printf("Warning: failed to connect to Weaviate database: %v", err)
			} else {
				fileService = service.NewFileService(cfg.UploadDir, weaviateDb, pdfService, embedder)
			}
		}

		// Readiness follows a warmup embedding call, the endpoints
		// answer 503 until the embedder is actually reachable.
		var embedderUp atomic.Bool
		go func() {
			for {
				pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				_, err := embedder.Embed(pingCtx, "ping")
				cancel()
				if err == nil {
					embedderUp.Store(true)
					log.Println("Embedder reachable, service ready")
					return
				}
				log.Printf("Warning: embedder not reachable yet: %v", err)
				time.Sleep(5 * time.Second)
			}
		}()
		ready := embedderUp.Load

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		healthHandler := handler.NewHealthHandler(ready)
		generateHandler := handler.NewGenerateHandler(pdfService, generator, validator, scorer, fileService, ready)
		uploadHandler := handler.NewUploadHandler(fileService)
		pdfHandler := handler.NewDocumentHandler(cfg.UploadDir)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/health", healthHandler.HealthHandler)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/generate", generateHandler.GenerateFromUploadHandler)
			apiV1.POST("/generate-saved", generateHandler.GenerateFromSavedHandler)
			apiV1.POST("/generate-with-difficulty", generateHandler.GenerateWithDifficultyHandler)
			apiV1.POST("/generate-saved-with-difficulty", generateHandler.GenerateSavedWithDifficultyHandler)
			apiV1.GET("/pdf", pdfHandler.ServePDFHandler)
		}

		adminRoutes := router.Group("/admin/api/v1")
		{
			adminRoutes.POST("/upload", uploadHandler.UploadDocumentsHandler)
			adminRoutes.GET("/documents/files", uploadHandler.ListFilesHandler)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
