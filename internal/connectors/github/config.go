package github

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Config holds GitHub connector configuration.
type Config struct {
	// Owner is the repository owner (user or organization).
	Owner string

	// Repo is the repository name.
	Repo string

	// Branch is the ref to list. Empty means the default branch.
	Branch string

	// Token is a personal access token or OAuth access token.
	Token string
}

// ParseConfig extracts configuration from a connection.
// The repository is configured as "owner/name".
func ParseConfig(conn domain.Connection) (*Config, error) {
	repo := conn.Config["repo"]
	if repo == "" {
		return nil, fmt.Errorf("%w: github connection requires a repo", domain.ErrInvalidInput)
	}

	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: repo must be owner/name, got %q", domain.ErrInvalidInput, repo)
	}

	token := conn.Config["token"]
	if token == "" {
		return nil, fmt.Errorf("%w: github connection requires a token", domain.ErrAuthRequired)
	}

	return &Config{
		Owner:  parts[0],
		Repo:   parts[1],
		Branch: conn.Config["branch"],
		Token:  token,
	}, nil
}
