package browser

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// MockNavigator implements driving.Navigator for testing.
type MockNavigator struct {
	ViewFunc func(ctx context.Context, connectionID string, cursor *string, query string) (*driving.TreeView, error)
}

func (m *MockNavigator) View(ctx context.Context, connectionID string, cursor *string, query string) (*driving.TreeView, error) {
	if m.ViewFunc != nil {
		return m.ViewFunc(ctx, connectionID, cursor, query)
	}
	return &driving.TreeView{}, nil
}

// MockSubscriptionService implements driving.SubscriptionService for testing.
type MockSubscriptionService struct {
	ToggleFunc func(ctx context.Context, connectionID, nodeID string) (*driving.ToggleResult, error)
}

func (m *MockSubscriptionService) Toggle(ctx context.Context, connectionID, nodeID string) (*driving.ToggleResult, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, connectionID, nodeID)
	}
	return &driving.ToggleResult{NodeID: nodeID, AffectedIDs: []string{nodeID}, IsSubscribed: true}, nil
}

// MockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type MockSyncOrchestrator struct {
	StartFunc       func(ctx context.Context, connectionID string) error
	ResyncFunc      func(ctx context.Context, connectionID string) error
	StatusFunc      func(ctx context.Context, connectionID string) (*driving.SyncStatus, error)
	WatchRemoteFunc func(ctx context.Context, connectionID string) (<-chan struct{}, func(), error)

	watchCh  chan driving.SyncStatus
	detached bool
}

func (m *MockSyncOrchestrator) Start(ctx context.Context, connectionID string) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, connectionID)
	}
	return nil
}

func (m *MockSyncOrchestrator) Resync(ctx context.Context, connectionID string) error {
	if m.ResyncFunc != nil {
		return m.ResyncFunc(ctx, connectionID)
	}
	return nil
}

func (m *MockSyncOrchestrator) Status(ctx context.Context, connectionID string) (*driving.SyncStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, connectionID)
	}
	return &driving.SyncStatus{ConnectionID: connectionID}, nil
}

func (m *MockSyncOrchestrator) Watch(connectionID string) (<-chan driving.SyncStatus, func()) {
	if m.watchCh == nil {
		m.watchCh = make(chan driving.SyncStatus, 8)
	}
	return m.watchCh, func() { m.detached = true }
}

func (m *MockSyncOrchestrator) WatchRemote(ctx context.Context, connectionID string) (<-chan struct{}, func(), error) {
	if m.WatchRemoteFunc != nil {
		return m.WatchRemoteFunc(ctx, connectionID)
	}
	return nil, nil, domain.ErrWatchUnsupported
}

func testConnection() domain.Connection {
	return domain.Connection{ID: "conn-1", Type: "filesystem", IntegrationName: "Local Notes"}
}

func newTestView(nav *MockNavigator, subs *MockSubscriptionService, sync *MockSyncOrchestrator) *View {
	if nav == nil {
		nav = &MockNavigator{}
	}
	if subs == nil {
		subs = &MockSubscriptionService{}
	}
	if sync == nil {
		sync = &MockSyncOrchestrator{}
	}
	v := NewView(styles.DefaultStyles(), nav, subs, sync)
	v.SetDimensions(80, 24)
	return v
}

func loadedTree() messages.TreeLoaded {
	return messages.TreeLoaded{
		ConnectionID: "conn-1",
		Folders:      []domain.DocumentNode{{ID: "folder-1", Title: "Notes", CanHaveChildren: true}},
		Files:        []domain.DocumentNode{{ID: "doc-1", Title: "Readme"}},
	}
}

func TestNewView(t *testing.T) {
	view := newTestView(nil, nil, nil)

	require.NotNil(t, view)
	assert.Nil(t, view.Connection())
	assert.Nil(t, view.Cursor())
	assert.False(t, view.Syncing())
}

func TestView_SetConnection_ResetsState(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.query = "old"
	view.typing = true

	cmd := view.SetConnection(testConnection())

	require.NotNil(t, cmd)
	require.NotNil(t, view.Connection())
	assert.Equal(t, "conn-1", view.Connection().ID)
	assert.Nil(t, view.Cursor())
	assert.Empty(t, view.Query())
	assert.False(t, view.Typing())
}

func TestView_TreeLoaded_PopulatesNodes(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(loadedTree())

	nodes := view.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "folder-1", nodes[0].ID)
	assert.NoError(t, view.Err())
}

func TestView_TreeLoaded_Error(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(messages.TreeLoaded{Err: errors.New("tree not synced")})

	assert.Error(t, view.Err())
}

func TestView_Enter_DrillsIntoFolder(t *testing.T) {
	nav := &MockNavigator{
		ViewFunc: func(_ context.Context, _ string, cursor *string, _ string) (*driving.TreeView, error) {
			if cursor == nil {
				return &driving.TreeView{}, nil
			}
			return &driving.TreeView{
				Files:       []domain.DocumentNode{{ID: "doc-2", Title: "Meeting"}},
				Breadcrumbs: []domain.DocumentNode{{ID: "folder-1", Title: "Notes"}},
			}, nil
		},
	}
	view := newTestView(nav, nil, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, view.Cursor())
	assert.Equal(t, "folder-1", *view.Cursor())
	require.NotNil(t, cmd)

	msg := cmd()
	loaded, ok := msg.(messages.TreeLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Breadcrumbs, 1)
}

func TestView_Enter_FileDoesNothing(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}) // select the file

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Nil(t, view.Cursor())
}

func TestView_Esc_PopsFolderLevel(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	folderID := "folder-2"
	view.cursor = &folderID
	view.breadcrumbs = []domain.DocumentNode{
		{ID: "folder-1", Title: "Notes"},
		{ID: "folder-2", Title: "2025"},
	}

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, view.Cursor())
	assert.Equal(t, "folder-1", *view.Cursor())
	assert.NotNil(t, cmd)
}

func TestView_Esc_AtRootReturnsToConnections(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	msg := cmd()
	changed, ok := msg.(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewConnections, changed.View)
}

func TestView_Esc_ClearsSearchFirst(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.query = "meeting"

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Empty(t, view.Query())
	assert.NotNil(t, cmd)
}

func TestView_Search_CommitQuery(t *testing.T) {
	var gotQuery string
	nav := &MockNavigator{
		ViewFunc: func(_ context.Context, _ string, _ *string, query string) (*driving.TreeView, error) {
			gotQuery = query
			return &driving.TreeView{Searching: query != ""}, nil
		},
	}
	view := newTestView(nav, nil, nil)
	view.SetConnection(testConnection())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	assert.True(t, view.Typing())

	for _, r := range "notes" {
		view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, view.Typing())
	assert.Equal(t, "notes", view.Query())
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "notes", gotQuery)
}

func TestView_Search_FiltersLiveWhileTyping(t *testing.T) {
	var queries []string
	nav := &MockNavigator{
		ViewFunc: func(_ context.Context, _ string, _ *string, query string) (*driving.TreeView, error) {
			queries = append(queries, query)
			return &driving.TreeView{Searching: query != ""}, nil
		},
	}
	view := newTestView(nav, nil, nil)
	view.SetConnection(testConnection())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})

	// Each keystroke narrows the results without waiting for enter.
	for _, r := range "no" {
		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		require.NotNil(t, cmd)
		drainBatch(cmd)
	}

	assert.Equal(t, []string{"n", "no"}, queries)
	assert.Equal(t, "no", view.Query())
	assert.True(t, view.Typing())
}

// drainBatch executes a command and any batched sub-commands once.
func drainBatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
}

func TestView_Search_EscCancelsTyping(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, view.Typing())
	assert.Empty(t, view.Query())
}

func TestView_Space_TogglesSubscription(t *testing.T) {
	subs := &MockSubscriptionService{
		ToggleFunc: func(_ context.Context, connectionID, nodeID string) (*driving.ToggleResult, error) {
			return &driving.ToggleResult{
				NodeID:       nodeID,
				AffectedIDs:  []string{nodeID, "doc-1"},
				IsSubscribed: true,
			}, nil
		},
	}
	view := newTestView(nil, subs, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeySpace})

	require.NotNil(t, cmd)
	msg := cmd()
	toggled, ok := msg.(messages.SubscriptionToggled)
	require.True(t, ok)
	assert.Equal(t, "folder-1", toggled.NodeID)
	assert.Equal(t, 2, toggled.AffectedCount)
	assert.True(t, toggled.IsSubscribed)

	// The toggle result triggers a reload.
	_, reload := view.Update(toggled)
	assert.NotNil(t, reload)
	assert.Contains(t, view.View(), "Subscribed folder-1 and 1 descendants.")
}

func TestView_Space_ToggleError(t *testing.T) {
	subs := &MockSubscriptionService{
		ToggleFunc: func(_ context.Context, _, _ string) (*driving.ToggleResult, error) {
			return nil, domain.ErrSubscriptionRejected
		},
	}
	view := newTestView(nil, subs, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)

	view.Update(cmd().(messages.SubscriptionToggled))
	assert.ErrorIs(t, view.Err(), domain.ErrSubscriptionRejected)
}

func TestView_StartSync_AttachesWatcher(t *testing.T) {
	sync := &MockSyncOrchestrator{}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	assert.True(t, view.Syncing())
	assert.NotNil(t, cmd)
	assert.NotNil(t, sync.watchCh)
}

func TestView_StartSync_IgnoredWhileRunning(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.syncing = true

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	assert.Nil(t, cmd)
}

func TestView_SyncProgressed_UpdatesCountAndRewaits(t *testing.T) {
	sync := &MockSyncOrchestrator{}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	_, cmd := view.Update(messages.SyncProgressed{
		ConnectionID:      "conn-1",
		Running:           true,
		DocumentsReceived: 12,
	})

	assert.Equal(t, 12, view.docCount)
	assert.NotNil(t, cmd)
	assert.Contains(t, view.View(), "Syncing... 12 documents")
}

func TestView_SyncProgressed_OtherConnectionIgnored(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(messages.SyncProgressed{ConnectionID: "other", DocumentsReceived: 99})

	assert.Equal(t, 0, view.docCount)
}

func TestView_SyncFinished_DetachesAndReloads(t *testing.T) {
	sync := &MockSyncOrchestrator{}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	_, cmd := view.Update(messages.SyncFinished{ConnectionID: "conn-1"})

	assert.False(t, view.Syncing())
	assert.True(t, sync.detached)
	assert.NotNil(t, cmd)
}

func TestView_SyncFinished_Error(t *testing.T) {
	sync := &MockSyncOrchestrator{}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	view.Update(messages.SyncFinished{ConnectionID: "conn-1", Err: errors.New("listing failed")})

	assert.False(t, view.Syncing())
	assert.Error(t, view.Err())
}

func TestView_Resync_UsesResync(t *testing.T) {
	var resynced bool
	sync := &MockSyncOrchestrator{
		ResyncFunc: func(_ context.Context, _ string) error {
			resynced = true
			return nil
		},
	}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'S'}})
	require.NotNil(t, cmd)

	// Run the batched commands until the sync finishes.
	drainCmd(t, cmd)
	assert.True(t, resynced)
}

// drainCmd executes a command tree until every branch returned a message.
func drainCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if _, isFinished := c().(messages.SyncFinished); isFinished {
				return
			}
		}
	}
}

func TestView_RemoteChange_ShowsNoticeUntilSynced(t *testing.T) {
	events := make(chan struct{}, 1)
	sync := &MockSyncOrchestrator{
		WatchRemoteFunc: func(_ context.Context, _ string) (<-chan struct{}, func(), error) {
			return events, func() {}, nil
		},
	}
	view := newTestView(nil, nil, sync)
	view.SetConnection(testConnection())

	_, cmd := view.Update(messages.RemoteWatchAttached{
		ConnectionID: "conn-1", Events: events, Stop: func() {},
	})
	require.NotNil(t, cmd)

	events <- struct{}{}
	msg := cmd()
	changed, ok := msg.(messages.RemoteChanged)
	require.True(t, ok)

	_, rewait := view.Update(changed)
	assert.True(t, view.SourceChanged())
	assert.Contains(t, view.View(), "Source changed since last sync")
	require.NotNil(t, rewait)

	// A finished sync run clears the notice.
	view.Update(messages.SyncFinished{ConnectionID: "conn-1"})
	assert.False(t, view.SourceChanged())
	assert.NotContains(t, view.View(), "Source changed since last sync")
}

func TestView_RemoteWatch_UnsupportedIsSilent(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	_, cmd := view.Update(messages.RemoteWatchAttached{
		ConnectionID: "conn-1", Err: domain.ErrWatchUnsupported,
	})

	assert.Nil(t, cmd)
	assert.False(t, view.SourceChanged())
	assert.NoError(t, view.Err())
}

func TestView_RemoteChange_OtherConnectionIgnored(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(messages.RemoteChanged{ConnectionID: "conn-9"})

	assert.False(t, view.SourceChanged())
}

func TestView_SyncStatusLoaded_ShowsFailureBanner(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())

	view.Update(messages.SyncStatusLoaded{
		ConnectionID: "conn-1",
		State:        domain.SyncFailed,
		SyncError:    "repository not found",
	})

	assert.Contains(t, view.View(), "Last sync failed: repository not found")
}

func TestView_SyncStatusLoaded_ShowsTruncation(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.Update(loadedTree())

	view.Update(messages.SyncStatusLoaded{
		ConnectionID:      "conn-1",
		State:             domain.SyncCompleted,
		DocumentsReceived: domain.MaxSyncDocuments,
		IsTruncated:       true,
	})

	assert.Contains(t, view.View(), "the tree is partial")
}

func TestView_View_Breadcrumbs(t *testing.T) {
	view := newTestView(nil, nil, nil)
	view.SetConnection(testConnection())
	view.Update(messages.TreeLoaded{
		ConnectionID: "conn-1",
		Files:        []domain.DocumentNode{{ID: "doc-2", Title: "Meeting"}},
		Breadcrumbs: []domain.DocumentNode{
			{ID: "folder-1", Title: "Notes"},
			{ID: "folder-2", Title: "2025"},
		},
	})

	out := view.View()
	assert.Contains(t, out, "/ Notes 2025")
	assert.Contains(t, out, "Meeting")
}
