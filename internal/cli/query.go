package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query \"<question>\"",
	Short: "Answer a single question from the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := buildApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.svc.Answer(context.Background(), args[0])
	if err != nil {
		return err
	}

	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Println("Sources:")
	for _, src := range answer.Sources {
		cmd.Printf("  - %s, page %d\n", src.Source, src.Page)
	}
	return nil
}
