// Command canopy manages document tree subscriptions for external
// integrations. It mirrors remote hierarchies locally, lets users pick the
// subtrees they care about, and keeps the sync state per connection.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/canopy-cli/internal/connectors"
	"github.com/custodia-labs/canopy-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := cfg.GetString("data_dir")
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(cfg.Path()), "data")
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	factory := connectors.NewFactory()

	cli.SetServices(cli.Services{
		Connections: services.NewConnectionManager(
			store.ConnectionStore(), store.TreeStore(), store.SyncJobStore(),
		),
		Subscriptions: services.NewSubscriptionPropagator(
			store.TreeStore(), store.SyncJobStore(), store.SubscriptionEndpoint(),
		),
		Sync: services.NewSyncOrchestrator(
			store.ConnectionStore(), store.SyncJobStore(), store.TreeStore(), factory,
		),
		Navigator: services.NewNavigator(store.TreeStore()),
	})

	return cli.Execute()
}
