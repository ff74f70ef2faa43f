// Package cli implements the pdfrag command surface.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Question answering over a directory of PDF files",
	Long: `pdfrag ingests the PDF files in a directory into a local vector store and
answers questions about them using retrieval-augmented generation.

Run "pdfrag init" once to build the store, then "pdfrag query" or
"pdfrag chat" as often as you like. Delete the store directory to rebuild.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/pdfrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree and returns its exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// newLogger builds the process logger. Debug level only with --verbose.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
