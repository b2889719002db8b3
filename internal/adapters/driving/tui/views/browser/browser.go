// Package browser provides the document tree browser view component for the TUI.
//
// The browser shows one level of a connection's tree at a time. Folders can
// be drilled into with enter and left with esc, "/" switches to a flat title
// search over the whole tree, and space toggles subscription on the selected
// node together with all of its descendants. Sync runs in the background and
// streams progress into the view through the orchestrator's watch channel.
package browser

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// View is the tree browser view.
type View struct {
	styles        *styles.Styles
	navigator     driving.Navigator
	subscriptions driving.SubscriptionService
	sync          driving.SyncOrchestrator

	connection  *domain.Connection
	cursor      *string
	breadcrumbs []domain.DocumentNode
	nodes       *list.NodeList
	search      *input.SearchInput

	// typing is true while the search input has focus.
	typing bool

	// query is the committed search, empty in browse mode.
	query string

	syncing   bool
	docCount  int
	truncated bool
	syncError string
	notice    string

	watchCh <-chan driving.SyncStatus
	detach  func()

	// sourceChanged is set when the connector pushes a change event for
	// the source, and cleared once a sync run finishes.
	sourceChanged bool
	remoteCh      <-chan struct{}
	stopRemote    func()

	width   int
	height  int
	ready   bool
	err     error
	loading bool
}

// NewView creates a new browser view.
func NewView(
	s *styles.Styles,
	navigator driving.Navigator,
	subscriptions driving.SubscriptionService,
	sync driving.SyncOrchestrator,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:        s,
		navigator:     navigator,
		subscriptions: subscriptions,
		sync:          sync,
		nodes:         list.NewNodeList(s),
		search:        input.NewSearchInput(s),
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetConnection points the browser at a connection and loads its root level.
func (v *View) SetConnection(connection domain.Connection) tea.Cmd {
	v.stopWatching()
	v.stopRemoteWatch()
	v.sourceChanged = false
	v.connection = &connection
	v.cursor = nil
	v.breadcrumbs = nil
	v.query = ""
	v.typing = false
	v.syncing = false
	v.docCount = 0
	v.truncated = false
	v.syncError = ""
	v.notice = ""
	v.err = nil
	v.loading = true
	v.search.Reset()
	v.search.Blur()
	v.nodes.SetNodes(nil, nil)
	return tea.Batch(v.loadTree(), v.loadStatus(), v.attachRemoteWatch())
}

// loadTree returns a command that loads the current tree projection.
func (v *View) loadTree() tea.Cmd {
	connection, cursor, query := v.connection, v.cursor, v.query
	return func() tea.Msg {
		if connection == nil || v.navigator == nil {
			return messages.TreeLoaded{Err: fmt.Errorf("navigator not available")}
		}

		view, err := v.navigator.View(context.Background(), connection.ID, cursor, query)
		if err != nil {
			return messages.TreeLoaded{ConnectionID: connection.ID, Err: err}
		}

		return messages.TreeLoaded{
			ConnectionID: connection.ID,
			Folders:      view.Folders,
			Files:        view.Files,
			Breadcrumbs:  view.Breadcrumbs,
			Searching:    view.Searching,
		}
	}
}

// loadStatus returns a command that loads the stored sync job state.
func (v *View) loadStatus() tea.Cmd {
	connection := v.connection
	return func() tea.Msg {
		if connection == nil || v.sync == nil {
			return nil
		}

		status, err := v.sync.Status(context.Background(), connection.ID)
		if err != nil {
			return messages.SyncStatusLoaded{ConnectionID: connection.ID, Err: err}
		}

		return messages.SyncStatusLoaded{
			ConnectionID:      status.ConnectionID,
			State:             status.State,
			DocumentsReceived: status.DocumentsReceived,
			IsTruncated:       status.IsTruncated,
			SyncError:         status.SyncError,
			SyncStartedAt:     status.SyncStartedAt,
		}
	}
}

// attachRemoteWatch returns a command that subscribes to change events
// pushed by the connection's source, if the connector supports them.
func (v *View) attachRemoteWatch() tea.Cmd {
	connection := v.connection
	return func() tea.Msg {
		if connection == nil || v.sync == nil {
			return nil
		}

		events, stop, err := v.sync.WatchRemote(context.Background(), connection.ID)
		if err != nil {
			// Most connectors cannot push change events; browse without
			// the changed-source notice.
			return messages.RemoteWatchAttached{ConnectionID: connection.ID, Err: err}
		}

		return messages.RemoteWatchAttached{ConnectionID: connection.ID, Events: events, Stop: stop}
	}
}

// waitForRemoteChange returns a command that receives one change event.
func (v *View) waitForRemoteChange() tea.Cmd {
	ch := v.remoteCh
	connection := v.connection
	return func() tea.Msg {
		if ch == nil || connection == nil {
			return nil
		}
		if _, ok := <-ch; !ok {
			return nil
		}
		return messages.RemoteChanged{ConnectionID: connection.ID}
	}
}

// Update handles messages for the browser view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.typing {
			return v.handleSearchKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.TreeLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.breadcrumbs = msg.Breadcrumbs
		v.nodes.SetNodes(msg.Folders, msg.Files)
		return v, nil

	case messages.SyncStatusLoaded:
		if msg.Err != nil {
			// Missing job just means the connection never synced.
			return v, nil
		}
		v.docCount = msg.DocumentsReceived
		v.truncated = msg.IsTruncated
		v.syncError = msg.SyncError
		return v, nil

	case messages.SubscriptionToggled:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = toggleNotice(msg)
		// Reload so every affected node shows its new marker.
		return v, v.loadTree()

	case messages.SyncProgressed:
		if v.connection == nil || msg.ConnectionID != v.connection.ID {
			return v, nil
		}
		v.docCount = msg.DocumentsReceived
		v.truncated = msg.IsTruncated
		v.syncError = msg.SyncError
		if msg.Running {
			return v, v.waitForStatus()
		}
		return v, nil

	case messages.SyncFinished:
		v.syncing = false
		v.stopWatching()
		if msg.Err != nil {
			v.err = msg.Err
			return v, v.loadStatus()
		}
		v.err = nil
		v.notice = ""
		v.sourceChanged = false
		return v, tea.Batch(v.loadTree(), v.loadStatus())

	case messages.RemoteWatchAttached:
		if v.connection == nil || msg.ConnectionID != v.connection.ID || msg.Err != nil {
			if msg.Stop != nil {
				msg.Stop()
			}
			return v, nil
		}
		v.stopRemoteWatch()
		v.remoteCh = msg.Events
		v.stopRemote = msg.Stop
		return v, v.waitForRemoteChange()

	case messages.RemoteChanged:
		if v.connection == nil || msg.ConnectionID != v.connection.ID {
			return v, nil
		}
		v.sourceChanged = true
		return v, v.waitForRemoteChange()
	}

	return v, nil
}

// handleKeyMsg handles key presses in browse mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "down", "j":
		v.nodes.Update(msg)
		return v, nil

	case "enter":
		node := v.nodes.Selected()
		if node == nil || !node.CanHaveChildren {
			return v, nil
		}
		id := node.ID
		v.cursor = &id
		v.query = ""
		v.notice = ""
		v.loading = true
		v.nodes.ResetSelection()
		return v, v.loadTree()

	case "esc":
		return v.goBack()

	case " ":
		node := v.nodes.Selected()
		if node == nil {
			return v, nil
		}
		return v, v.toggleSubscription(node.ID)

	case "/":
		v.typing = true
		v.search.Reset()
		return v, v.search.Focus()

	case "s":
		return v.startSync(false)

	case "S":
		return v.startSync(true)
	}

	return v, nil
}

// handleSearchKeyMsg handles key presses while the search input is focused.
// Results filter live on every edit; enter keeps the results and leaves the
// input, esc abandons the search.
func (v *View) handleSearchKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.typing = false
		v.search.Blur()
		v.query = v.search.Query()
		v.cursor = nil
		v.notice = ""
		v.nodes.ResetSelection()
		return v, v.loadTree()

	case tea.KeyEsc:
		v.typing = false
		v.search.Blur()
		if v.query == "" {
			return v, nil
		}
		v.query = ""
		v.cursor = nil
		v.nodes.ResetSelection()
		return v, v.loadTree()

	default:
		var cmd tea.Cmd
		var edited bool
		v.search, cmd, edited = v.search.Update(msg)
		if !edited {
			return v, cmd
		}
		v.query = v.search.Query()
		v.cursor = nil
		v.notice = ""
		v.nodes.ResetSelection()
		return v, tea.Batch(cmd, v.loadTree())
	}
}

// goBack leaves search mode, then pops one folder level, then returns to the
// connection list.
func (v *View) goBack() (*View, tea.Cmd) {
	v.notice = ""

	if v.query != "" {
		v.query = ""
		v.cursor = nil
		v.loading = true
		v.nodes.ResetSelection()
		return v, v.loadTree()
	}

	if v.cursor != nil {
		if len(v.breadcrumbs) > 1 {
			id := v.breadcrumbs[len(v.breadcrumbs)-2].ID
			v.cursor = &id
		} else {
			v.cursor = nil
		}
		v.loading = true
		v.nodes.ResetSelection()
		return v, v.loadTree()
	}

	return v, func() tea.Msg {
		return messages.ViewChanged{View: messages.ViewConnections}
	}
}

// toggleSubscription returns a command that flips subscription on a node.
func (v *View) toggleSubscription(nodeID string) tea.Cmd {
	connection := v.connection
	return func() tea.Msg {
		if connection == nil || v.subscriptions == nil {
			return messages.SubscriptionToggled{NodeID: nodeID, Err: fmt.Errorf("subscription service not available")}
		}

		result, err := v.subscriptions.Toggle(context.Background(), connection.ID, nodeID)
		if err != nil {
			return messages.SubscriptionToggled{NodeID: nodeID, Err: err}
		}

		return messages.SubscriptionToggled{
			NodeID:        result.NodeID,
			AffectedCount: len(result.AffectedIDs),
			IsSubscribed:  result.IsSubscribed,
		}
	}
}

// startSync attaches a watcher and runs ingestion in the background.
func (v *View) startSync(resync bool) (*View, tea.Cmd) {
	if v.connection == nil || v.sync == nil || v.syncing {
		return v, nil
	}

	v.syncing = true
	v.syncError = ""
	v.notice = ""
	v.watchCh, v.detach = v.sync.Watch(v.connection.ID)

	return v, tea.Batch(v.runSync(resync), v.waitForStatus())
}

// runSync returns a command that blocks until the sync run returns.
func (v *View) runSync(resync bool) tea.Cmd {
	connection := v.connection
	return func() tea.Msg {
		var err error
		if resync {
			err = v.sync.Resync(context.Background(), connection.ID)
		} else {
			err = v.sync.Start(context.Background(), connection.ID)
		}
		return messages.SyncFinished{ConnectionID: connection.ID, Err: err}
	}
}

// waitForStatus returns a command that receives one watcher update.
func (v *View) waitForStatus() tea.Cmd {
	ch := v.watchCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return nil
		}
		return messages.SyncProgressed{
			ConnectionID:      status.ConnectionID,
			Running:           status.Running,
			DocumentsReceived: status.DocumentsReceived,
			IsTruncated:       status.IsTruncated,
			SyncError:         status.SyncError,
			State:             status.State,
		}
	}
}

// stopWatching detaches the sync observer if one is attached.
func (v *View) stopWatching() {
	if v.detach != nil {
		v.detach()
		v.detach = nil
	}
	v.watchCh = nil
}

// stopRemoteWatch releases the source change-event watcher if one is
// attached.
func (v *View) stopRemoteWatch() {
	if v.stopRemote != nil {
		v.stopRemote()
		v.stopRemote = nil
	}
	v.remoteCh = nil
}

func toggleNotice(msg messages.SubscriptionToggled) string {
	verb := "Subscribed"
	if !msg.IsSubscribed {
		verb = "Unsubscribed"
	}
	if msg.AffectedCount > 1 {
		return fmt.Sprintf("%s %s and %d descendants.", verb, msg.NodeID, msg.AffectedCount-1)
	}
	return fmt.Sprintf("%s %s.", verb, msg.NodeID)
}

// View renders the browser view.
func (v *View) View() string {
	var b strings.Builder

	title := "Browse"
	if v.connection != nil {
		title = fmt.Sprintf("Browse: %s", v.connection.DisplayName())
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.typing {
		b.WriteString(v.search.View())
		b.WriteString("\n\n")
	}

	if v.syncing {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Syncing... %d documents", v.docCount)))
		b.WriteString("\n\n")
	} else if v.syncError != "" {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Last sync failed: %s. Press S to resync.", v.syncError)))
		b.WriteString("\n\n")
	}

	if v.truncated && !v.syncing {
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("Listing cut off at %d documents; the tree is partial.", domain.MaxSyncDocuments)))
		b.WriteString("\n\n")
	}

	if v.sourceChanged && !v.syncing {
		b.WriteString(v.styles.Warning.Render("Source changed since last sync. Press s to sync."))
		b.WriteString("\n\n")
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.query != "" {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Search: %q", v.query)))
		b.WriteString("\n\n")
	} else if len(v.breadcrumbs) > 0 {
		b.WriteString(v.styles.Breadcrumb.Render(v.renderBreadcrumbs()))
		b.WriteString("\n\n")
	}

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading..."))
	} else {
		b.WriteString(v.nodes.View())
	}
	b.WriteString("\n")

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderBreadcrumbs renders the ancestor path root to cursor.
func (v *View) renderBreadcrumbs() string {
	parts := make([]string, 0, len(v.breadcrumbs)+1)
	parts = append(parts, "/")
	for i := range v.breadcrumbs {
		parts = append(parts, v.breadcrumbs[i].Title)
	}
	return strings.Join(parts, " ")
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.typing {
		return v.styles.Help.Render("[enter] search  [esc] cancel")
	}
	return v.styles.Help.Render("[space] toggle  [enter] open  [/] search  [s] sync  [S] resync  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.search.SetWidth(width)
	// Leave room for title, banners and help footer.
	v.nodes.SetDimensions(width, height-8)
}

// Connection returns the connection being browsed, nil when unset.
func (v *View) Connection() *domain.Connection {
	return v.connection
}

// Cursor returns the current folder cursor, nil at the root level.
func (v *View) Cursor() *string {
	return v.cursor
}

// Query returns the committed search query.
func (v *View) Query() string {
	return v.query
}

// Typing returns whether the search input has focus.
func (v *View) Typing() bool {
	return v.typing
}

// Syncing returns whether a sync run is active.
func (v *View) Syncing() bool {
	return v.syncing
}

// SourceChanged returns whether the source changed since the last sync.
func (v *View) SourceChanged() bool {
	return v.sourceChanged
}

// Nodes returns the listed nodes.
func (v *View) Nodes() []domain.DocumentNode {
	return v.nodes.Nodes()
}

// Selected returns the currently selected node, or nil when empty.
func (v *View) Selected() *domain.DocumentNode {
	return v.nodes.Selected()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
