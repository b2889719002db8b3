package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/canopy-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator runs the ingestion job for each connection and owns its
// lifecycle: in_progress, completed (possibly truncated) or failed, with
// manual resync as the only retry path.
type SyncOrchestrator struct {
	connectionStore driven.ConnectionStore
	jobStore        driven.SyncJobStore
	treeStore       driven.TreeStore
	factory         driven.ConnectorFactory

	// now is swappable for tests.
	now func() time.Time

	mu       sync.Mutex
	active   map[string]*activeRun
	watchers map[string][]chan driving.SyncStatus
}

// activeRun tracks one in-flight ingestion run. received is read by
// Status callers on other goroutines while ingestion writes it.
type activeRun struct {
	cancel   context.CancelFunc
	done     chan struct{}
	received atomic.Int64
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	connectionStore driven.ConnectionStore,
	jobStore driven.SyncJobStore,
	treeStore driven.TreeStore,
	factory driven.ConnectorFactory,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		connectionStore: connectionStore,
		jobStore:        jobStore,
		treeStore:       treeStore,
		factory:         factory,
		now:             time.Now,
		active:          make(map[string]*activeRun),
		watchers:        make(map[string][]chan driving.SyncStatus),
	}
}

// Start runs ingestion for a connection. Blocks until the run finishes.
func (o *SyncOrchestrator) Start(ctx context.Context, connectionID string) error {
	conn, err := o.connectionStore.Get(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	runCtx, run, err := o.beginRun(ctx, connectionID)
	if err != nil {
		return err
	}
	defer o.endRun(connectionID, run)

	job := domain.NewSyncJob(conn, o.now())
	if err := o.jobStore.Save(runCtx, job); err != nil {
		return fmt.Errorf("save sync job: %w", err)
	}
	o.notify(runCtx, connectionID)

	logger.Info("Starting sync for connection %s (%s)", connectionID, conn.DisplayName())

	if o.factory == nil {
		return o.fail(runCtx, &job, errors.New("connector factory not configured"))
	}
	connector, err := o.factory.Create(runCtx, *conn)
	if err != nil {
		return o.fail(runCtx, &job, fmt.Errorf("create connector: %w", err))
	}
	defer connector.Close()

	if connector.Capabilities().SupportsValidation {
		if err := connector.Validate(runCtx); err != nil {
			return o.fail(runCtx, &job, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err))
		}
	}

	truncated, err := o.ingest(runCtx, conn, connector, run)
	if err != nil {
		return o.fail(runCtx, &job, err)
	}

	job.Complete(truncated, o.now())
	if err := o.jobStore.Save(runCtx, job); err != nil {
		return fmt.Errorf("save sync job: %w", err)
	}
	o.notify(runCtx, connectionID)

	logger.Info("Sync complete for %s: %d documents, truncated=%v",
		connectionID, run.received.Load(), truncated)
	return nil
}

// Resync is a hard reset: cancel any active run, wipe local nodes and the
// old job record, then start fresh. Subscription choices are discarded
// with the wiped nodes.
func (o *SyncOrchestrator) Resync(ctx context.Context, connectionID string) error {
	o.mu.Lock()
	run := o.active[connectionID]
	o.mu.Unlock()

	if run != nil {
		run.cancel()
		<-run.done
	}

	if err := o.treeStore.Clear(ctx, connectionID); err != nil {
		return fmt.Errorf("clear tree: %w", err)
	}
	if err := o.jobStore.Delete(ctx, connectionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete sync job: %w", err)
	}

	return o.Start(ctx, connectionID)
}

// Status reports the current job state for a connection.
func (o *SyncOrchestrator) Status(ctx context.Context, connectionID string) (*driving.SyncStatus, error) {
	status, err := o.snapshot(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Watch attaches an observer channel for a connection's status updates.
// The returned detach function must be called when done.
func (o *SyncOrchestrator) Watch(connectionID string) (<-chan driving.SyncStatus, func()) {
	ch := make(chan driving.SyncStatus, 16)

	o.mu.Lock()
	o.watchers[connectionID] = append(o.watchers[connectionID], ch)
	o.mu.Unlock()

	detach := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		chans := o.watchers[connectionID]
		for i, c := range chans {
			if c == ch {
				o.watchers[connectionID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}
	return ch, detach
}

// WatchRemote subscribes to change events from the connection's source.
// Returns domain.ErrWatchUnsupported when the connector cannot push change
// events.
func (o *SyncOrchestrator) WatchRemote(ctx context.Context, connectionID string) (<-chan struct{}, func(), error) {
	conn, err := o.connectionStore.Get(ctx, connectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get connection: %w", err)
	}
	if o.factory == nil {
		return nil, nil, errors.New("connector factory not configured")
	}

	connector, err := o.factory.Create(ctx, *conn)
	if err != nil {
		return nil, nil, fmt.Errorf("create connector: %w", err)
	}
	if !connector.Capabilities().SupportsWatch {
		connector.Close()
		return nil, nil, domain.ErrWatchUnsupported
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := connector.Watch(watchCtx)
	if err != nil {
		cancel()
		connector.Close()
		return nil, nil, fmt.Errorf("watch source: %w", err)
	}

	logger.Debug("Watching source of connection %s", connectionID)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			connector.Close()
		})
	}
	return events, stop, nil
}

// ingest consumes the connector's listing into the tree store. Returns
// whether the listing was truncated at the document cap.
func (o *SyncOrchestrator) ingest(
	ctx context.Context,
	conn *domain.Connection,
	connector driven.Connector,
	run *activeRun,
) (bool, error) {
	docsCh, errsCh := connector.ListDocuments(ctx)
	truncated := false

	// Drain both channels before returning. A truncation marker may still
	// sit buffered on errsCh when docsCh closes, so neither closure alone
	// ends the run.
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			// A truncation marker is a successful completion, not a failure.
			if lt, isTruncated := driven.IsListingTruncated(err); isTruncated {
				logger.Info("Listing truncated for %s after %d documents", conn.ID, lt.Received)
				truncated = true
				continue
			}
			if err != nil {
				return false, fmt.Errorf("connector error: %w", err)
			}

		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			if run.received.Load() >= domain.MaxSyncDocuments {
				// Connectors enforce the cap themselves; this guard keeps
				// the invariant even against a misbehaving connector.
				truncated = true
				continue
			}

			if err := o.treeStore.Put(ctx, nodeFromRemote(conn.ID, doc)); err != nil {
				return false, fmt.Errorf("store document: %w", err)
			}
			run.received.Add(1)
			o.notify(ctx, conn.ID)
		}
	}

	return truncated, nil
}

// fail records a terminal failure on the job. The reason is preserved and
// displayed until a manual resync clears it.
func (o *SyncOrchestrator) fail(ctx context.Context, job *domain.SyncJob, cause error) error {
	logger.Warn("Sync failed for %s: %v", job.ConnectionID, cause)
	job.Fail(cause.Error(), o.now())
	// Record the terminal state even when the run context was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := o.jobStore.Save(ctx, *job); err != nil {
		return errors.Join(cause, fmt.Errorf("save sync job: %w", err))
	}
	o.notify(ctx, job.ConnectionID)
	return cause
}

// beginRun registers an active run, rejecting concurrent runs per connection.
func (o *SyncOrchestrator) beginRun(ctx context.Context, connectionID string) (context.Context, *activeRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.active[connectionID]; exists {
		return nil, nil, domain.ErrSyncInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{cancel: cancel, done: make(chan struct{})}
	o.active[connectionID] = run
	return runCtx, run, nil
}

// endRun deregisters a finished run.
func (o *SyncOrchestrator) endRun(connectionID string, run *activeRun) {
	o.mu.Lock()
	delete(o.active, connectionID)
	o.mu.Unlock()
	run.cancel()
	close(run.done)
}

// snapshot builds a point-in-time status from the active run and the job
// record.
func (o *SyncOrchestrator) snapshot(ctx context.Context, connectionID string) (driving.SyncStatus, error) {
	o.mu.Lock()
	run := o.active[connectionID]
	o.mu.Unlock()

	var received int
	if run != nil {
		received = int(run.received.Load())
	}

	status := driving.SyncStatus{
		ConnectionID:      connectionID,
		Running:           run != nil,
		DocumentsReceived: received,
	}

	job, err := o.jobStore.Get(ctx, connectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status, nil // idle - never synced
		}
		return status, fmt.Errorf("get sync job: %w", err)
	}

	status.State = job.Status
	status.IsTruncated = job.IsTruncated
	status.SyncError = job.SyncError
	status.SyncStartedAt = job.SyncStartedAt
	status.SyncCompletedAt = job.SyncCompletedAt

	if run == nil {
		count, err := o.treeStore.Count(ctx, connectionID)
		if err != nil {
			return status, fmt.Errorf("count nodes: %w", err)
		}
		status.DocumentsReceived = count
	}

	return status, nil
}

// notify pushes a status snapshot to every watcher of the connection.
// Slow watchers are skipped rather than blocking ingestion.
func (o *SyncOrchestrator) notify(ctx context.Context, connectionID string) {
	status, err := o.snapshot(ctx, connectionID)
	if err != nil {
		logger.Debug("Status snapshot failed for %s: %v", connectionID, err)
		return
	}

	o.mu.Lock()
	chans := make([]chan driving.SyncStatus, len(o.watchers[connectionID]))
	copy(chans, o.watchers[connectionID])
	o.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- status:
		default:
		}
	}
}

// nodeFromRemote converts a connector descriptor into a stored node.
// Nodes start unsubscribed; subscription is a user choice.
func nodeFromRemote(connectionID string, doc domain.RemoteDocument) domain.DocumentNode {
	node := domain.DocumentNode{
		ID:              doc.ID,
		ConnectionID:    connectionID,
		ParentID:        doc.ParentID,
		Title:           doc.Title,
		CanHaveChildren: doc.CanHaveChildren,
	}
	if doc.StorageKey != "" {
		key := doc.StorageKey
		node.StorageKey = &key
	}
	return node
}
