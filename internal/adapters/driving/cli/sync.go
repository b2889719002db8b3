package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [connection-id]",
	Short: "Fetch the document tree for a connection",
	Long: `Runs ingestion for a connection: lists the remote hierarchy and
mirrors it locally. With --resync the local tree is wiped first and all
subscription choices are discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

var resyncCmd = &cobra.Command{
	Use:   "resync [connection-id]",
	Short: "Discard the local tree and sync from scratch",
	Long: `Hard reset for a connection: cancels any active run, wipes the local
tree together with all subscription choices, and syncs from scratch.
Shorthand for 'canopy sync --resync'.`,
	Args: cobra.ExactArgs(1),
	RunE: runResync,
}

var statusCmd = &cobra.Command{
	Use:   "status [connection-id]",
	Short: "Show the sync status of a connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

// resyncFlag requests a hard reset before syncing.
var resyncFlag bool

func init() {
	syncCmd.Flags().BoolVar(&resyncFlag, "resync", false, "Discard the local tree and sync from scratch")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(statusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	return doSync(cmd, args[0], resyncFlag)
}

func runResync(cmd *cobra.Command, args []string) error {
	return doSync(cmd, args[0], true)
}

func doSync(cmd *cobra.Command, connectionID string, resync bool) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if resync {
		cmd.Printf("Resyncing %s from scratch...\n", connectionID)
	} else {
		cmd.Printf("Syncing %s...\n", connectionID)
	}

	if err := syncWithProgress(ctx, cmd, connectionID, resync); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncWithProgress runs the sync while streaming watcher updates.
func syncWithProgress(ctx context.Context, cmd *cobra.Command, connectionID string, resync bool) error {
	updates, detach := syncOrchestrator.Watch(connectionID)
	defer detach()

	errCh := make(chan error, 1)
	go func() {
		if resync {
			errCh <- syncOrchestrator.Resync(ctx, connectionID)
			return
		}
		errCh <- syncOrchestrator.Start(ctx, connectionID)
	}()

	lastCount := -1
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
			printFinalStatus(ctx, cmd, connectionID)
			return nil
		case status := <-updates:
			if status.Running && status.DocumentsReceived > lastCount {
				cmd.Printf("\rReceived %d documents", status.DocumentsReceived)
				lastCount = status.DocumentsReceived
			}
		}
	}
}

func printFinalStatus(ctx context.Context, cmd *cobra.Command, connectionID string) {
	// Best effort; the sync itself already succeeded.
	status, err := syncOrchestrator.Status(ctx, connectionID)
	if err != nil {
		cmd.Println("\rSync finished.")
		return
	}

	cmd.Printf("\rSynced %d documents.\n", status.DocumentsReceived)
	if status.IsTruncated {
		cmd.Printf("Listing was cut off at %d documents; the tree is partial.\n", domain.MaxSyncDocuments)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	connectionID := args[0]
	status, err := syncOrchestrator.Status(context.Background(), connectionID)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	printStatus(cmd, status)
	return nil
}

func printStatus(cmd *cobra.Command, status *driving.SyncStatus) {
	cmd.Printf("Connection: %s\n", status.ConnectionID)

	if status.Idle() {
		cmd.Println("Status:     never synced")
		return
	}

	cmd.Printf("Status:     %s\n", status.State)
	cmd.Printf("Documents:  %d\n", status.DocumentsReceived)
	cmd.Printf("Started:    %s\n", status.SyncStartedAt.Format("2006-01-02 15:04:05"))

	if status.SyncCompletedAt != nil {
		cmd.Printf("Finished:   %s\n", status.SyncCompletedAt.Format("2006-01-02 15:04:05"))
	}
	if status.IsTruncated {
		cmd.Printf("Truncated:  listing cut off at %d documents\n", domain.MaxSyncDocuments)
	}
	if status.State == domain.SyncFailed {
		cmd.Printf("Error:      %s\n", status.SyncError)
		cmd.Println("Run 'canopy sync --resync' to try again from scratch.")
	}
}
