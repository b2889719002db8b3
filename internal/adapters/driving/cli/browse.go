package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Launch the interactive tree browser",
	Long: `Launch the interactive terminal user interface for Canopy.

Browse connected document trees, drill into folders, search by title, and
toggle subscriptions with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open folder / select connection
  Space    - Toggle subscription
  /        - Search titles
  Esc      - Back / cancel search
  s        - Sync, S - resync
  q        - Quit`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	// Panic recovery so terminal state problems come with a stack trace
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Connections:   connectionService,
		Subscriptions: subscriptionService,
		Sync:          syncOrchestrator,
		Navigator:     navigatorService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
