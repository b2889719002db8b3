package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure SyncJobStore implements the interface.
var _ driven.SyncJobStore = (*SyncJobStore)(nil)

// SyncJobStore is an in-memory implementation of driven.SyncJobStore.
type SyncJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.SyncJob
}

// NewSyncJobStore creates a new in-memory sync job store.
func NewSyncJobStore() *SyncJobStore {
	return &SyncJobStore{
		jobs: make(map[string]domain.SyncJob),
	}
}

// Save stores or replaces the job record for a connection.
func (s *SyncJobStore) Save(_ context.Context, job domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ConnectionID] = job
	return nil
}

// Get retrieves the job record for a connection.
func (s *SyncJobStore) Get(_ context.Context, connectionID string) (*domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[connectionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// Delete removes the job record for a connection. Deleting a missing
// record is not an error.
func (s *SyncJobStore) Delete(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, connectionID)
	return nil
}
