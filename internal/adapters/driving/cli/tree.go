package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

var treeCmd = &cobra.Command{
	Use:   "tree [connection-id]",
	Short: "Show the document tree of a connection",
	Long: `Lists one level of a connection's document tree. Use --folder to
drill into a folder, or --search to find nodes by title across the whole
tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

// Flags for tree.
var (
	treeFolder string
	treeSearch string
)

func init() {
	treeCmd.Flags().StringVar(&treeFolder, "folder", "", "Folder node to list, root level if empty")
	treeCmd.Flags().StringVar(&treeSearch, "search", "", "Case-insensitive title search across the whole tree")

	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	if navigatorService == nil {
		return errors.New("navigator service not configured")
	}

	connectionID := args[0]

	var cursor *string
	if treeFolder != "" {
		cursor = &treeFolder
	}

	view, err := navigatorService.View(context.Background(), connectionID, cursor, treeSearch)
	if err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}

	printTreeView(cmd, view)
	return nil
}

func printTreeView(cmd *cobra.Command, view *driving.TreeView) {
	if view.Searching {
		cmd.Printf("Search results (%d):\n\n", len(view.Folders)+len(view.Files))
	} else if len(view.Breadcrumbs) > 0 {
		cmd.Print("Path: /")
		for _, crumb := range view.Breadcrumbs {
			cmd.Printf(" %s /", crumb.Title)
		}
		cmd.Println()
		cmd.Println()
	}

	if len(view.Folders) == 0 && len(view.Files) == 0 {
		cmd.Println("No documents here.")
		return
	}

	for i := range view.Folders {
		printNode(cmd, &view.Folders[i])
	}
	for i := range view.Files {
		printNode(cmd, &view.Files[i])
	}
}

func printNode(cmd *cobra.Command, node *domain.DocumentNode) {
	marker := " "
	if node.IsSubscribed {
		marker = "*"
	}
	kind := "file"
	if node.CanHaveChildren {
		kind = "dir "
	}
	cmd.Printf("  [%s] %s  %s  (%s)\n", marker, kind, node.Title, node.ID)
}
