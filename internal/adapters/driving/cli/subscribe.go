package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [connection-id] [node-id]",
	Short: "Toggle subscription on a document or folder",
	Long: `Flips the subscription flag of a node. Toggling a folder applies
the new flag to the folder and everything underneath it. Toggling a
subscribed node unsubscribes it the same way.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubscribe,
}

func init() {
	rootCmd.AddCommand(subscribeCmd)
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	if subscriptionService == nil {
		return errors.New("subscription service not configured")
	}

	connectionID, nodeID := args[0], args[1]

	result, err := subscriptionService.Toggle(context.Background(), connectionID, nodeID)
	if err != nil {
		return fmt.Errorf("failed to toggle subscription: %w", err)
	}

	verb := "Unsubscribed"
	if result.IsSubscribed {
		verb = "Subscribed"
	}

	if len(result.AffectedIDs) == 1 {
		cmd.Printf("%s %s.\n", verb, result.NodeID)
	} else {
		cmd.Printf("%s %s and %d descendants.\n", verb, result.NodeID, len(result.AffectedIDs)-1)
	}
	return nil
}
