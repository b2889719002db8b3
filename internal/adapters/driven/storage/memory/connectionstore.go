package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore is an in-memory implementation of driven.ConnectionStore.
type ConnectionStore struct {
	mu          sync.RWMutex
	connections map[string]domain.Connection
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		connections: make(map[string]domain.Connection),
	}
}

// Save stores or updates a connection.
func (s *ConnectionStore) Save(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn.ID] = conn
	return nil
}

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(_ context.Context, id string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conn, nil
}

// List returns all connections ordered by creation time.
func (s *ConnectionStore) List(_ context.Context) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		result = append(result, conn)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes a connection.
func (s *ConnectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, id)
	return nil
}
