package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/canopy-cli/internal/logger"
)

// Ensure ConnectionManager implements the interface.
var _ driving.ConnectionService = (*ConnectionManager)(nil)

// ConnectionManager manages linked external accounts. Each connection owns
// its document tree and sync job; disconnecting removes all three.
type ConnectionManager struct {
	connectionStore driven.ConnectionStore
	treeStore       driven.TreeStore
	jobStore        driven.SyncJobStore
}

// NewConnectionManager creates a new connection manager.
func NewConnectionManager(
	connectionStore driven.ConnectionStore,
	treeStore driven.TreeStore,
	jobStore driven.SyncJobStore,
) *ConnectionManager {
	return &ConnectionManager{
		connectionStore: connectionStore,
		treeStore:       treeStore,
		jobStore:        jobStore,
	}
}

// Connect creates and stores a new connection.
func (m *ConnectionManager) Connect(ctx context.Context, params driving.ConnectParams) (*domain.Connection, error) {
	if params.Type == "" {
		return nil, fmt.Errorf("%w: connector type is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	conn := domain.Connection{
		ID:              uuid.NewString(),
		Type:            params.Type,
		IntegrationID:   params.IntegrationID,
		IntegrationName: params.IntegrationName,
		IntegrationLogo: params.IntegrationLogo,
		Config:          params.Config,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.connectionStore.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}

	logger.Info("Connected %s (%s)", conn.DisplayName(), conn.ID)
	return &conn, nil
}

// Get retrieves a connection by ID.
func (m *ConnectionManager) Get(ctx context.Context, id string) (*domain.Connection, error) {
	conn, err := m.connectionStore.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return conn, nil
}

// List returns all connections.
func (m *ConnectionManager) List(ctx context.Context) ([]domain.Connection, error) {
	conns, err := m.connectionStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// Disconnect removes a connection with its document tree and sync job.
func (m *ConnectionManager) Disconnect(ctx context.Context, id string) error {
	if _, err := m.connectionStore.Get(ctx, id); err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	if err := m.treeStore.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear tree: %w", err)
	}
	if err := m.jobStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sync job: %w", err)
	}
	if err := m.connectionStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	logger.Info("Disconnected %s", id)
	return nil
}
