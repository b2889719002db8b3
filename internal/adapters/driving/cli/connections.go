package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage connected sources",
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected sources",
	RunE:  runConnectionsList,
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove [connection-id]",
	Short: "Remove a connection and its document tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectionsRemove,
}

func init() {
	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsRemoveCmd)
	rootCmd.AddCommand(connectionsCmd)
}

func runConnectionsList(cmd *cobra.Command, _ []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	conns, err := connectionService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	if len(conns) == 0 {
		cmd.Println("No connections configured. Run 'canopy connect' to add one.")
		return nil
	}

	cmd.Println("Connections:")
	cmd.Println()
	for i := range conns {
		cmd.Printf("  %s\n", conns[i].ID)
		cmd.Printf("    Name:    %s\n", conns[i].DisplayName())
		cmd.Printf("    Type:    %s\n", conns[i].Type)
		cmd.Printf("    Created: %s\n", conns[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	cmd.Printf("Total: %d connections\n", len(conns))
	return nil
}

func runConnectionsRemove(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	connectionID := args[0]
	if err := connectionService.Disconnect(context.Background(), connectionID); err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	cmd.Printf("Connection %s removed.\n", connectionID)
	return nil
}
