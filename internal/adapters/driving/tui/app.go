package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/views/browser"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/views/connections"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// connectionsView is the connection list view.
	connectionsView *connections.View

	// browserView is the document tree browser view.
	browserView *browser.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		connectionsView: connections.NewView(s, ports.Connections),
		browserView:     browser.NewView(s, ports.Navigator, ports.Subscriptions, ports.Sync),
		currentView:     messages.ViewConnections,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("canopy - Document Subscriptions"),
		a.connectionsView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.connectionsView.SetDimensions(msg.Width, msg.Height)
		a.browserView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewConnections {
			return a, a.connectionsView.Init()
		}
		return a, nil

	case messages.ConnectionSelected:
		a.currentView = messages.ViewBrowser
		return a, a.browserView.SetConnection(msg.Connection)

	case messages.ConnectionsLoaded, messages.ConnectionRemoved:
		a.connectionsView, cmd = a.connectionsView.Update(msg)
		return a, cmd

	case messages.TreeLoaded, messages.SyncStatusLoaded,
		messages.SubscriptionToggled, messages.SyncProgressed, messages.SyncFinished,
		messages.RemoteWatchAttached, messages.RemoteChanged:
		a.browserView, cmd = a.browserView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to the active view.
	switch a.currentView {
	case messages.ViewConnections:
		a.connectionsView, cmd = a.connectionsView.Update(msg)
	case messages.ViewBrowser:
		a.browserView, cmd = a.browserView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't handle other messages
	}

	return a, cmd
}

// handleKeyMsg routes key presses to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit with ctrl+c
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewConnections:
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "?":
			a.currentView = messages.ViewHelp
			return a, nil
		}
		a.connectionsView, cmd = a.connectionsView.Update(msg)
		return a, cmd

	case messages.ViewBrowser:
		// The browser owns "q" while typing a search query.
		if msg.String() == "q" && !a.browserView.Typing() {
			return a, tea.Quit
		}
		if msg.String() == "?" && !a.browserView.Typing() {
			a.currentView = messages.ViewHelp
			return a, nil
		}
		a.browserView, cmd = a.browserView.Update(msg)
		return a, cmd

	case messages.ViewHelp:
		switch msg.String() {
		case "esc", "q":
			a.currentView = messages.ViewConnections
			return a, nil
		}
		return a, nil
	}

	return a, nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewConnections:
		return a.connectionsView.View()
	case messages.ViewBrowser:
		return a.browserView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.connectionsView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Connections:
  j/k, ↑/↓    Navigate connections
  enter       Browse document tree
  d           Disconnect
  r           Reload
  q           Quit

Browser:
  j/k, ↑/↓    Navigate nodes
  enter       Open folder
  esc         Parent folder / back
  space       Toggle subscription
  /           Search titles
  s           Sync
  S           Resync from scratch

[esc] back`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.connectionsView.SetDimensions(width, height)
	a.browserView.SetDimensions(width, height)
}
