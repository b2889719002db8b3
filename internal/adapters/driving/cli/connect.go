package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

var connectCmd = &cobra.Command{
	Use:   "connect [type]",
	Short: "Connect a new document source",
	Long: `Connect a document source and store its configuration.

Supported types:
  filesystem   A local directory (requires --path)
  googledrive  A Google Drive account (prompts for an access token)
  github       A GitHub repository (requires --repo, prompts for a token)

Examples:
  canopy connect filesystem --path ~/Documents/notes
  canopy connect github --repo acme/handbook --name "Team Handbook"
  canopy connect googledrive --folder-id 1AbC...`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

// Flags for connect.
var (
	connectName     string
	connectPath     string
	connectRepo     string
	connectBranch   string
	connectFolderID string
	connectToken    string
)

func init() {
	connectCmd.Flags().StringVar(&connectName, "name", "", "Display name for the connection")
	connectCmd.Flags().StringVar(&connectPath, "path", "", "Root directory (filesystem)")
	connectCmd.Flags().StringVar(&connectRepo, "repo", "", "Repository as owner/name (github)")
	connectCmd.Flags().StringVar(&connectBranch, "branch", "", "Branch to list, default branch if empty (github)")
	connectCmd.Flags().StringVar(&connectFolderID, "folder-id", "", "Folder to list, whole drive if empty (googledrive)")
	connectCmd.Flags().StringVar(&connectToken, "token", "", "Access token (github, googledrive); prompted if omitted")

	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	connType := args[0]
	config := map[string]string{}

	switch connType {
	case "filesystem":
		if connectPath == "" {
			return errors.New("filesystem connections require --path")
		}
		config["path"] = connectPath

	case "github":
		if connectRepo == "" {
			return errors.New("github connections require --repo owner/name")
		}
		config["repo"] = connectRepo
		if connectBranch != "" {
			config["branch"] = connectBranch
		}
		config["token"] = resolveToken(cmd, "GitHub access token")

	case "googledrive":
		if connectFolderID != "" {
			config["folder_id"] = connectFolderID
		}
		config["token"] = resolveToken(cmd, "Google Drive access token")

	default:
		return fmt.Errorf("unknown connection type: %s", connType)
	}

	conn, err := connectionService.Connect(context.Background(), driving.ConnectParams{
		Type:            connType,
		IntegrationName: connectName,
		Config:          config,
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	cmd.Printf("Connected %s (%s)\n", conn.DisplayName(), conn.ID)
	cmd.Printf("Run 'canopy sync %s' to fetch the document tree.\n", conn.ID)
	return nil
}

// resolveToken returns the --token flag value, or prompts without echo.
func resolveToken(cmd *cobra.Command, label string) string {
	if connectToken != "" {
		return connectToken
	}
	cmd.Printf("%s: ", label)
	token := readSecret()
	cmd.Println()
	return token
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	// Read without echo when attached to a terminal
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
