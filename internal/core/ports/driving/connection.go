package driving

import (
	"context"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// ConnectionService manages linked external accounts.
type ConnectionService interface {
	// Connect creates and stores a new connection.
	Connect(ctx context.Context, params ConnectParams) (*domain.Connection, error)

	// Get retrieves a connection by ID.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// List returns all connections.
	List(ctx context.Context) ([]domain.Connection, error)

	// Disconnect removes a connection together with its document tree and
	// sync job record.
	Disconnect(ctx context.Context, id string) error
}

// ConnectParams carries everything needed to establish a connection.
type ConnectParams struct {
	// Type is the connector type (e.g., "filesystem", "googledrive", "github").
	Type string

	// IntegrationID, IntegrationName and IntegrationLogo identify the
	// external integration for display.
	IntegrationID   string
	IntegrationName string
	IntegrationLogo string

	// Config holds connector-specific settings (path, token, folder id...).
	Config map[string]string
}
