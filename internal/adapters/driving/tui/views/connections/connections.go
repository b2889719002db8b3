// Package connections provides the connection list view component for the TUI.
package connections

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// View is the connection list view.
type View struct {
	styles            *styles.Styles
	connectionService driving.ConnectionService

	connections []domain.Connection
	selected    int
	width       int
	height      int
	ready       bool
	err         error
	loading     bool
}

// NewView creates a new connections view.
func NewView(s *styles.Styles, connectionService driving.ConnectionService) *View {
	return &View{
		styles:            s,
		connectionService: connectionService,
		connections:       []domain.Connection{},
	}
}

// Init initialises the view and loads connections.
func (v *View) Init() tea.Cmd {
	return v.loadConnections()
}

// loadConnections returns a command that loads connections from the service.
func (v *View) loadConnections() tea.Cmd {
	return func() tea.Msg {
		if v.connectionService == nil {
			return messages.ConnectionsLoaded{Err: fmt.Errorf("connection service not available")}
		}

		connections, err := v.connectionService.List(context.Background())
		return messages.ConnectionsLoaded{Connections: connections, Err: err}
	}
}

// Update handles messages for the connections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ConnectionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.connections = msg.Connections
			v.err = nil
			if v.selected >= len(v.connections) {
				v.selected = 0
			}
		}
		return v, nil

	case messages.ConnectionRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		// Reload connections after removal
		return v, v.loadConnections()
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.connections)-1 {
			v.selected++
		}
	case "enter":
		// Open the tree browser for the selected connection
		if len(v.connections) > 0 && v.selected < len(v.connections) {
			connection := v.connections[v.selected]
			return v, func() tea.Msg {
				return messages.ConnectionSelected{Connection: connection}
			}
		}
	case "d", "delete":
		// Disconnect selected connection
		if len(v.connections) > 0 && v.selected < len(v.connections) {
			return v, v.removeConnection(v.connections[v.selected].ID)
		}
	case "r":
		v.loading = true
		return v, v.loadConnections()
	}

	return v, nil
}

// removeConnection returns a command that disconnects a connection.
func (v *View) removeConnection(id string) tea.Cmd {
	return func() tea.Msg {
		if v.connectionService == nil {
			return messages.ConnectionRemoved{ID: id, Err: fmt.Errorf("connection service not available")}
		}

		err := v.connectionService.Disconnect(context.Background(), id)
		return messages.ConnectionRemoved{ID: id, Err: err}
	}
}

// View renders the connections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Connections"))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading connections..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.connections) == 0 {
		b.WriteString(v.styles.Muted.Render("No connections configured. Run 'canopy connect' to add one."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	for i := range v.connections {
		b.WriteString(v.renderConnection(i, &v.connections[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderConnection renders a single connection line.
func (v *View) renderConnection(index int, connection *domain.Connection) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	typeStr := fmt.Sprintf("[%s]", connection.Type)
	name := connection.DisplayName()

	maxNameLen := v.width - len(typeStr) - 12
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-12s %s", indicator, typeStr, name))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-12s ", typeStr)) +
		v.styles.Normal.Render(name)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] browse  [d] disconnect  [r] reload  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Connections returns the current list of connections.
func (v *View) Connections() []domain.Connection {
	return v.connections
}

// SelectedIndex returns the currently selected connection index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
