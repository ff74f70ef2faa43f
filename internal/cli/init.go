package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Build the vector store from the configured PDF directory",
	Long: `Loads every PDF in the documents directory, splits the text into
overlapping chunks, embeds each chunk and stores the result in the vector
store. An existing non-empty store is reused without re-embedding; delete the
store directory to force a rebuild.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// remember whether the store directory existed so a failed run does
	// not leave an empty store directory behind
	_, statErr := os.Stat(cfg.Store.Path)
	existedBefore := statErr == nil

	a, err := buildApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.svc.Ingest(context.Background(), cfg.Documents.Dir)
	if err != nil {
		a.close()
		if !existedBefore && cfg.Store.Type == "sqlite" {
			_ = os.RemoveAll(cfg.Store.Path)
		}
		return err
	}

	if stats.Reused {
		cmd.Printf("Vector store already contains %d chunks; nothing to do.\n", stats.Chunks)
		cmd.Println("Delete the store directory to rebuild from scratch.")
		return nil
	}
	cmd.Printf("Indexed %d documents (%d pages, %d chunks).\n", stats.Documents, stats.Pages, stats.Chunks)
	cmd.Println("Ready to answer questions. Try: pdfrag query \"...\"")
	return nil
}
