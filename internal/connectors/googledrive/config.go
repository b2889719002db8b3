// Package googledrive lists a Google Drive account's file hierarchy
// using the Drive v3 API.
package googledrive

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Config holds Google Drive connector configuration.
type Config struct {
	// Token is an OAuth access token with drive.readonly scope.
	Token string

	// FolderID limits the listing to one folder subtree (optional).
	// Empty means the whole drive.
	FolderID string

	// PageSize is the page size for Files.List requests.
	PageSize int64
}

// DefaultPageSize is the default Files.List page size.
const DefaultPageSize = 100

// ParseConfig extracts configuration from a connection.
func ParseConfig(conn domain.Connection) (*Config, error) {
	token := conn.Config["token"]
	if token == "" {
		return nil, fmt.Errorf("%w: googledrive connection requires a token", domain.ErrAuthRequired)
	}

	cfg := &Config{
		Token:    token,
		FolderID: conn.Config["folder_id"],
		PageSize: DefaultPageSize,
	}

	if val := conn.Config["page_size"]; val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}

	return cfg, nil
}
