/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcq-gen-be",
	Short: "Generate multiple-choice questions from PDF documents",
	Long: `mcq-gen-be turns PDF documents into multiple-choice questions.

It extracts and chunks the document text, embeds the chunks into a
vector index and asks a language model to write questions grounded in
the retrieved content. Generated questions can optionally be validated
against the source document and scored.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
