package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// syncJobStore implements driven.SyncJobStore. Each connection has at most
// one job row; Save replaces it wholesale, matching resync semantics.
type syncJobStore struct {
	store *Store
}

var _ driven.SyncJobStore = (*syncJobStore)(nil)

// Save stores or replaces the job record for a connection.
func (s *syncJobStore) Save(ctx context.Context, job domain.SyncJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (connection_id, integration_id, integration_name, integration_logo,
			status, sync_started_at, sync_completed_at, sync_error, is_truncated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id) DO UPDATE SET
			integration_id = excluded.integration_id,
			integration_name = excluded.integration_name,
			integration_logo = excluded.integration_logo,
			status = excluded.status,
			sync_started_at = excluded.sync_started_at,
			sync_completed_at = excluded.sync_completed_at,
			sync_error = excluded.sync_error,
			is_truncated = excluded.is_truncated
	`, job.ConnectionID, job.IntegrationID, job.IntegrationName, job.IntegrationLogo,
		string(job.Status), job.SyncStartedAt, nullTimePtr(job.SyncCompletedAt),
		job.SyncError, job.IsTruncated)

	if err != nil {
		return fmt.Errorf("saving sync job: %w", err)
	}
	return nil
}

// Get retrieves the job record for a connection.
func (s *syncJobStore) Get(ctx context.Context, connectionID string) (*domain.SyncJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT connection_id, integration_id, integration_name, integration_logo,
			status, sync_started_at, sync_completed_at, sync_error, is_truncated
		FROM sync_jobs WHERE connection_id = ?
	`, connectionID)

	var job domain.SyncJob
	var status string
	var completedAt sql.NullTime

	err := row.Scan(&job.ConnectionID, &job.IntegrationID, &job.IntegrationName,
		&job.IntegrationLogo, &status, &job.SyncStartedAt, &completedAt,
		&job.SyncError, &job.IsTruncated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync job: %w", err)
	}

	job.Status = domain.SyncJobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		job.SyncCompletedAt = &t
	}
	return &job, nil
}

// Delete removes the job record for a connection.
func (s *syncJobStore) Delete(ctx context.Context, connectionID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sync_jobs WHERE connection_id = ?", connectionID); err != nil {
		return fmt.Errorf("deleting sync job: %w", err)
	}
	return nil
}

// subscriptionEndpoint implements driven.SubscriptionEndpoint against the
// subscriptions ledger table. The whole batch commits or none of it does,
// which is what lets the propagator treat failure as all-or-nothing.
type subscriptionEndpoint struct {
	store *Store
}

var _ driven.SubscriptionEndpoint = (*subscriptionEndpoint)(nil)

// Apply persists the subscription flag for every document in one transaction.
func (s *subscriptionEndpoint) Apply(ctx context.Context, connectionID string, documentIDs []string, isSubscribed bool) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, id := range documentIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (connection_id, document_id, is_subscribed, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(connection_id, document_id) DO UPDATE SET
				is_subscribed = excluded.is_subscribed,
				updated_at = excluded.updated_at
		`, connectionID, id, isSubscribed, now); err != nil {
			return fmt.Errorf("recording subscription %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
