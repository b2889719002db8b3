package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// --- Mock implementations for sync testing ---

// syncMockConnector implements driven.Connector for testing.
type syncMockConnector struct {
	connectionID string
	connType     string
	capabilities driven.ConnectorCapabilities
	docs         []domain.RemoteDocument
	listErr      error
	truncated    bool
	validateErr  error
	release      chan struct{} // when set, blocks before streaming docs
	watchEvents  chan struct{} // when set, Watch returns this channel
	closed       bool
}

func (m *syncMockConnector) Type() string         { return m.connType }
func (m *syncMockConnector) ConnectionID() string { return m.connectionID }
func (m *syncMockConnector) Capabilities() driven.ConnectorCapabilities {
	return m.capabilities
}

func (m *syncMockConnector) Validate(_ context.Context) error {
	return m.validateErr
}

func (m *syncMockConnector) ListDocuments(ctx context.Context) (<-chan domain.RemoteDocument, <-chan error) {
	docs := make(chan domain.RemoteDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if m.release != nil {
			select {
			case <-ctx.Done():
				return
			case <-m.release:
			}
		}

		if m.listErr != nil {
			errs <- m.listErr
			return
		}

		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}

		if m.truncated {
			errs <- &driven.ListingTruncated{Received: len(m.docs)}
		}
	}()

	return docs, errs
}

func (m *syncMockConnector) Watch(_ context.Context) (<-chan struct{}, error) {
	if m.watchEvents == nil {
		return nil, errors.New("watch not implemented")
	}
	return m.watchEvents, nil
}

func (m *syncMockConnector) Close() error {
	m.closed = true
	return nil
}

// syncMockFactory implements driven.ConnectorFactory.
type syncMockFactory struct {
	connectors map[string]*syncMockConnector
	createErr  error
}

func newSyncMockFactory() *syncMockFactory {
	return &syncMockFactory{connectors: make(map[string]*syncMockConnector)}
}

func (f *syncMockFactory) Create(_ context.Context, conn domain.Connection) (driven.Connector, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	connector, ok := f.connectors[conn.ID]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return connector, nil
}

// syncFixture bundles the orchestrator with its stores.
type syncFixture struct {
	orch    *SyncOrchestrator
	conns   *memory.ConnectionStore
	jobs    *memory.SyncJobStore
	tree    *memory.TreeStore
	factory *syncMockFactory
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		conns:   memory.NewConnectionStore(),
		jobs:    memory.NewSyncJobStore(),
		tree:    memory.NewTreeStore(),
		factory: newSyncMockFactory(),
	}
	f.orch = NewSyncOrchestrator(f.conns, f.jobs, f.tree, f.factory)
	return f
}

func (f *syncFixture) addConnection(t *testing.T, id string, connector *syncMockConnector) {
	t.Helper()
	require.NoError(t, f.conns.Save(context.Background(), domain.Connection{
		ID: id, Type: "mock", IntegrationName: "Mock Source",
	}))
	f.factory.connectors[id] = connector
}

func remoteDoc(id string, parent *string, folder bool) domain.RemoteDocument {
	return domain.RemoteDocument{
		ID: id, ParentID: parent, Title: id, CanHaveChildren: folder,
	}
}

func TestSync_CompletesWithinCap(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	folder := "folder-1"
	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		docs: []domain.RemoteDocument{
			remoteDoc("folder-1", nil, true),
			remoteDoc("file-1", &folder, false),
			remoteDoc("file-2", &folder, false),
		},
	})

	require.NoError(t, f.orch.Start(ctx, "conn-1"))

	job, err := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, job.Status)
	assert.False(t, job.IsTruncated)
	assert.Empty(t, job.SyncError)
	require.NotNil(t, job.SyncCompletedAt)
	assert.False(t, job.SyncCompletedAt.Before(job.SyncStartedAt))

	count, err := f.tree.Count(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	status, err := f.orch.Status(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.DocumentsReceived)
}

func TestSync_TruncationIsNotFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	docs := make([]domain.RemoteDocument, domain.MaxSyncDocuments)
	for i := range docs {
		docs[i] = remoteDoc(fmt.Sprintf("doc-%04d", i), nil, false)
	}
	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		docs:         docs,
		truncated:    true,
	})

	require.NoError(t, f.orch.Start(ctx, "conn-1"))

	job, err := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, job.Status)
	assert.True(t, job.IsTruncated)
	assert.Empty(t, job.SyncError)
}

func TestSync_TruncationFlagSurvivesChannelClose(t *testing.T) {
	// The connector buffers the truncation marker and then closes both
	// channels. The marker must be read even when the docs channel closes
	// first, on every run.
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		f := newSyncFixture(t)
		f.addConnection(t, "conn-1", &syncMockConnector{
			connectionID: "conn-1",
			docs: []domain.RemoteDocument{
				remoteDoc("doc-1", nil, false),
				remoteDoc("doc-2", nil, false),
			},
			truncated: true,
		})

		require.NoError(t, f.orch.Start(ctx, "conn-1"))

		job, err := f.jobs.Get(ctx, "conn-1")
		require.NoError(t, err)
		require.Equal(t, domain.SyncCompleted, job.Status)
		require.True(t, job.IsTruncated, "run %d lost the truncation flag", i)
	}
}

func TestSync_StatusPolledDuringActiveRun(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	docs := make([]domain.RemoteDocument, 200)
	for i := range docs {
		docs[i] = remoteDoc(fmt.Sprintf("doc-%04d", i), nil, false)
	}
	f.addConnection(t, "conn-1", &syncMockConnector{connectionID: "conn-1", docs: docs})

	// Hammer Status from another goroutine while ingestion increments the
	// running count. Run with -race.
	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
				status, err := f.orch.Status(ctx, "conn-1")
				if err == nil && status.Running {
					assert.GreaterOrEqual(t, status.DocumentsReceived, 0)
				}
			}
		}
	}()

	require.NoError(t, f.orch.Start(ctx, "conn-1"))
	close(stop)
	<-polled

	status, err := f.orch.Status(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, 200, status.DocumentsReceived)
}

func TestSync_CapEnforcedAgainstMisbehavingConnector(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// Connector streams past the cap without signalling truncation.
	docs := make([]domain.RemoteDocument, domain.MaxSyncDocuments+25)
	for i := range docs {
		docs[i] = remoteDoc(fmt.Sprintf("doc-%04d", i), nil, false)
	}
	f.addConnection(t, "conn-1", &syncMockConnector{connectionID: "conn-1", docs: docs})

	require.NoError(t, f.orch.Start(ctx, "conn-1"))

	job, err := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, job.Status)
	assert.True(t, job.IsTruncated)

	count, err := f.tree.Count(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.MaxSyncDocuments, count)
}

func TestSync_FailureRecordsReason(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		listErr:      errors.New("remote returned 500"),
	})

	err := f.orch.Start(ctx, "conn-1")
	require.Error(t, err)

	job, getErr := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.SyncFailed, job.Status)
	assert.Contains(t, job.SyncError, "remote returned 500")

	// The reason is preserved until resync clears it.
	status, statusErr := f.orch.Status(ctx, "conn-1")
	require.NoError(t, statusErr)
	assert.Equal(t, domain.SyncFailed, status.State)
	assert.Contains(t, status.SyncError, "remote returned 500")
}

func TestSync_ValidationFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		capabilities: driven.ConnectorCapabilities{SupportsValidation: true},
		validateErr:  errors.New("token expired"),
	})

	err := f.orch.Start(ctx, "conn-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)

	job, getErr := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.SyncFailed, job.Status)
}

func TestSync_ConcurrentStartRejected(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		release:      release,
		docs:         []domain.RemoteDocument{remoteDoc("doc-1", nil, false)},
	})

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.orch.Start(ctx, "conn-1") }()

	// Wait until the first run is registered.
	require.Eventually(t, func() bool {
		status, err := f.orch.Status(ctx, "conn-1")
		return err == nil && status.Running
	}, time.Second, 5*time.Millisecond)

	err := f.orch.Start(ctx, "conn-1")
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(release)
	require.NoError(t, <-firstDone)
}

func TestSync_ResyncResetsEverything(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// Failed, truncated history with leftover nodes and subscriptions.
	require.NoError(t, f.tree.Put(ctx, domain.DocumentNode{
		ID: "stale", ConnectionID: "conn-1", Title: "stale", IsSubscribed: true,
	}))
	require.NoError(t, f.jobs.Save(ctx, domain.SyncJob{
		ConnectionID: "conn-1",
		Status:       domain.SyncFailed,
		SyncError:    "remote returned 500",
		IsTruncated:  true,
	}))

	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		docs:         []domain.RemoteDocument{remoteDoc("fresh", nil, false)},
	})

	watch, detach := f.orch.Watch("conn-1")
	defer detach()

	require.NoError(t, f.orch.Resync(ctx, "conn-1"))

	// The first observed status after resync is a clean in_progress run.
	first := <-watch
	assert.Equal(t, domain.SyncInProgress, first.State)
	assert.Empty(t, first.SyncError)
	assert.False(t, first.IsTruncated)

	// Old nodes (and their subscription choices) are gone.
	_, err := f.tree.Get(ctx, "conn-1", "stale")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fresh, err := f.tree.Get(ctx, "conn-1", "fresh")
	require.NoError(t, err)
	assert.False(t, fresh.IsSubscribed)

	job, err := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, job.Status)
	assert.Empty(t, job.SyncError)
	assert.False(t, job.IsTruncated)
}

func TestSync_ResyncCancelsActiveRun(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	stuck := &syncMockConnector{connectionID: "conn-1", release: release}
	f.addConnection(t, "conn-1", stuck)

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.orch.Start(ctx, "conn-1") }()

	require.Eventually(t, func() bool {
		status, err := f.orch.Status(ctx, "conn-1")
		return err == nil && status.Running
	}, time.Second, 5*time.Millisecond)

	// Swap in a healthy connector for the restart; a stuck in_progress job
	// is only recoverable via manual resync.
	f.factory.connectors["conn-1"] = &syncMockConnector{
		connectionID: "conn-1",
		docs:         []domain.RemoteDocument{remoteDoc("doc-1", nil, false)},
	}

	require.NoError(t, f.orch.Resync(ctx, "conn-1"))

	// The cancelled first run reports the cancellation to its caller.
	require.Error(t, <-firstDone)

	job, err := f.jobs.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, job.Status)
}

func TestSync_StatusIdleWhenNeverSynced(t *testing.T) {
	f := newSyncFixture(t)

	status, err := f.orch.Status(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.True(t, status.Idle())
	assert.False(t, status.Running)
	assert.Zero(t, status.DocumentsReceived)
}

func TestSync_WatcherSeesRunningCount(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.addConnection(t, "conn-1", &syncMockConnector{
		connectionID: "conn-1",
		docs: []domain.RemoteDocument{
			remoteDoc("doc-1", nil, false),
			remoteDoc("doc-2", nil, false),
		},
	})

	watch, detach := f.orch.Watch("conn-1")
	defer detach()

	require.NoError(t, f.orch.Start(ctx, "conn-1"))

	var sawRunning bool
	var final driving.SyncStatus
	for {
		select {
		case status := <-watch:
			if status.Running && status.DocumentsReceived > 0 {
				sawRunning = true
			}
			final = status
			if status.State == domain.SyncCompleted {
				assert.True(t, sawRunning)
				assert.Equal(t, 2, final.DocumentsReceived)
				return
			}
		case <-time.After(time.Second):
			t.Fatal("never observed completion")
		}
	}
}

func TestSync_WatchRemoteUnsupported(t *testing.T) {
	f := newSyncFixture(t)
	connector := &syncMockConnector{connectionID: "conn-1"}
	f.addConnection(t, "conn-1", connector)

	_, _, err := f.orch.WatchRemote(context.Background(), "conn-1")
	assert.ErrorIs(t, err, domain.ErrWatchUnsupported)
	assert.True(t, connector.closed)
}

func TestSync_WatchRemoteDeliversEvents(t *testing.T) {
	f := newSyncFixture(t)
	connector := &syncMockConnector{
		connectionID: "conn-1",
		capabilities: driven.ConnectorCapabilities{SupportsWatch: true},
		watchEvents:  make(chan struct{}, 1),
	}
	f.addConnection(t, "conn-1", connector)

	events, stop, err := f.orch.WatchRemote(context.Background(), "conn-1")
	require.NoError(t, err)
	require.NotNil(t, events)

	connector.watchEvents <- struct{}{}
	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("never received the change event")
	}

	stop()
	assert.True(t, connector.closed)
}

func TestSync_UnknownConnection(t *testing.T) {
	f := newSyncFixture(t)

	err := f.orch.Start(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSync_ConnectorClosedAfterRun(t *testing.T) {
	f := newSyncFixture(t)
	connector := &syncMockConnector{
		connectionID: "conn-1",
		docs:         []domain.RemoteDocument{remoteDoc("doc-1", nil, false)},
	}
	f.addConnection(t, "conn-1", connector)

	require.NoError(t, f.orch.Start(context.Background(), "conn-1"))
	assert.True(t, connector.closed)
}
