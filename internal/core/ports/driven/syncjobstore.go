package driven

import (
	"context"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// SyncJobStore persists sync job records, one per connection.
type SyncJobStore interface {
	// Save stores or replaces the job record for a connection.
	Save(ctx context.Context, job domain.SyncJob) error

	// Get retrieves the job record for a connection.
	// Returns domain.ErrNotFound when the connection has never synced.
	Get(ctx context.Context, connectionID string) (*domain.SyncJob, error)

	// Delete removes the job record for a connection.
	Delete(ctx context.Context, connectionID string) error
}

// ConnectionStore persists connection configurations.
type ConnectionStore interface {
	// Save stores or updates a connection.
	Save(ctx context.Context, conn domain.Connection) error

	// Get retrieves a connection by ID.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// List returns all connections.
	List(ctx context.Context) ([]domain.Connection, error)

	// Delete removes a connection.
	Delete(ctx context.Context, id string) error
}
