/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/mcq-gen-be/config"
	"github.com/tieubaoca/mcq-gen-be/database"
	"github.com/tieubaoca/mcq-gen-be/service"
	"github.com/tieubaoca/mcq-gen-be/types"
)

// uploadDocumentCmd represents the uploadDocument command
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Ingest a PDF into the vector store from the command line",
	Long: `Extracts, chunks and embeds a local PDF file and persists the
chunks in the Weaviate vector store, so questions can later be
generated for it through the generate-saved endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if filePath == "" {
			log.Fatal("--file is required")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		pdfService := service.NewPDFService(types.DocumentServiceConfig{
			MaxChunkChars: cfg.Generation.MaxChunkChars,
		})
		embedder := service.NewOpenAIEmbedder(cfg.EmbedderEndpoint, cfg.EmbedderAPIKey, cfg.EmbedderModel)

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		if reinit {
			if err := weaviateDb.ReInit(); err != nil {
				log.Fatalf("Failed to reinitialize Weaviate database: %v", err)
			}
		}

		fileService := service.NewFileService(cfg.UploadDir, weaviateDb, pdfService, embedder)
		filename := filepath.Base(filePath)
		count, err := fileService.IngestPath(context.Background(), filePath, filename)
		if err != nil {
			log.Fatalf("Failed to ingest document: %v", err)
		}
		fmt.Printf("Ingested %s: %d chunks\n", filename, count)
	},
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)

	uploadDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF file to ingest")
	uploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Recreate the chunk class before ingesting")
}
