package domain

import "time"

// MaxSyncDocuments is the hard cap on documents ingested per sync run.
// A listing that exceeds the cap is cut off and the job is marked
// truncated; truncation is informational, not a failure.
const MaxSyncDocuments = 1000

// SyncJobStatus identifies the lifecycle state of a sync job.
type SyncJobStatus string

const (
	// SyncInProgress means ingestion is running.
	SyncInProgress SyncJobStatus = "in_progress"
	// SyncCompleted means the listing finished, possibly truncated.
	SyncCompleted SyncJobStatus = "completed"
	// SyncFailed means ingestion hit an unrecoverable error.
	// The only forward transition is a manual resync.
	SyncFailed SyncJobStatus = "failed"
)

// SyncJob is the status record for one connection's ingestion run.
// It is created when the user starts syncing, replaced wholesale on
// manual resync, and deleted only when the connection is removed.
type SyncJob struct {
	// ConnectionID links to the Connection being synced.
	ConnectionID string

	// IntegrationID identifies the external integration.
	IntegrationID string

	// IntegrationName is the human-readable integration name.
	IntegrationName string

	// IntegrationLogo is the integration's logo asset reference.
	IntegrationLogo string

	// Status is the current lifecycle state.
	Status SyncJobStatus

	// SyncStartedAt is when the run began.
	SyncStartedAt time.Time

	// SyncCompletedAt is when the run finished, nil while in progress.
	SyncCompletedAt *time.Time

	// SyncError holds a human-readable failure reason.
	// Set only when Status is SyncFailed.
	SyncError string

	// IsTruncated is true if the listing was cut off at MaxSyncDocuments.
	IsTruncated bool
}

// NewSyncJob creates an in-progress job for a connection.
func NewSyncJob(conn *Connection, now time.Time) SyncJob {
	return SyncJob{
		ConnectionID:    conn.ID,
		IntegrationID:   conn.IntegrationID,
		IntegrationName: conn.IntegrationName,
		IntegrationLogo: conn.IntegrationLogo,
		Status:          SyncInProgress,
		SyncStartedAt:   now,
	}
}

// Complete marks the job as finished. Truncation does not change the
// outcome: a capped listing still completes.
func (j *SyncJob) Complete(truncated bool, now time.Time) {
	j.Status = SyncCompleted
	j.IsTruncated = truncated
	j.SyncError = ""
	j.SyncCompletedAt = &now
}

// Fail marks the job as failed with a human-readable reason.
func (j *SyncJob) Fail(reason string, now time.Time) {
	j.Status = SyncFailed
	j.SyncError = reason
	j.SyncCompletedAt = &now
}

// Running reports whether ingestion is still in progress.
func (j *SyncJob) Running() bool {
	return j.Status == SyncInProgress
}
