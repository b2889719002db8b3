// Package cli provides the cobra command tree for the canopy binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/canopy-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Package-level service handles, injected by main before Execute.
var (
	connectionService   driving.ConnectionService
	subscriptionService driving.SubscriptionService
	syncOrchestrator    driving.SyncOrchestrator
	navigatorService    driving.Navigator
)

// Services bundles the driving ports the CLI commands depend on.
type Services struct {
	Connections   driving.ConnectionService
	Subscriptions driving.SubscriptionService
	Sync          driving.SyncOrchestrator
	Navigator     driving.Navigator
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	connectionService = s.Connections
	subscriptionService = s.Subscriptions
	syncOrchestrator = s.Sync
	navigatorService = s.Navigator
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Browse and subscribe to document trees from connected sources",
	Long: `Canopy links external document sources (local folders, Google Drive,
GitHub repositories), mirrors their folder hierarchy locally, and lets you
choose which documents to subscribe to for content sync.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
