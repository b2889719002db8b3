package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// SyncOrchestrator owns the lifecycle of the background ingestion job for
// each connection.
type SyncOrchestrator interface {
	// Start runs ingestion for a connection. It blocks until the run
	// finishes; callers wanting progress updates run it in a goroutine and
	// attach a watcher. Returns domain.ErrSyncInProgress if a run is
	// already active for the connection.
	Start(ctx context.Context, connectionID string) error

	// Resync is a hard reset: it cancels any active run, wipes the
	// connection's local nodes, clears syncError and isTruncated, and
	// starts a fresh run. All subscription choices are discarded with the
	// wiped nodes.
	Resync(ctx context.Context, connectionID string) error

	// Status reports the current job state for a connection.
	Status(ctx context.Context, connectionID string) (*SyncStatus, error)

	// Watch attaches an observer for a connection's status updates.
	// The returned function detaches the observer and must be called when
	// the caller stops listening.
	Watch(connectionID string) (<-chan SyncStatus, func())

	// WatchRemote subscribes to change events pushed by the connection's
	// source. The channel receives a signal whenever the source changes
	// and closes when watching stops. Returns domain.ErrWatchUnsupported
	// when the connector cannot push change events. The returned function
	// releases the watcher and must be called when done.
	WatchRemote(ctx context.Context, connectionID string) (<-chan struct{}, func(), error)
}

// SyncStatus is a point-in-time snapshot of a connection's sync job.
type SyncStatus struct {
	// ConnectionID identifies the connection.
	ConnectionID string

	// State is the job lifecycle state. Empty when no job exists (idle).
	State domain.SyncJobStatus

	// Running indicates an ingestion run is currently active.
	Running bool

	// DocumentsReceived counts documents ingested so far in the current
	// run, or in the last completed run.
	DocumentsReceived int

	// IsTruncated is true if the listing was cut off at the document cap.
	IsTruncated bool

	// SyncError is the failure reason when State is SyncFailed.
	SyncError string

	// SyncStartedAt and SyncCompletedAt bound the run.
	SyncStartedAt   time.Time
	SyncCompletedAt *time.Time
}

// Idle reports whether no sync job exists for the connection.
func (s *SyncStatus) Idle() bool {
	return s.State == ""
}
