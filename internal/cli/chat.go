package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdfrag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively in a terminal session",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := buildApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	m := tui.New(a.svc)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
