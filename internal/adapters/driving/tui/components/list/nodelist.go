// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// NodeList displays one level of a document tree in a navigable list.
// Folders are listed before files, matching the navigator's ordering.
type NodeList struct {
	nodes    []domain.DocumentNode
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewNodeList creates a new node list component.
func NewNodeList(s *styles.Styles) *NodeList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &NodeList{
		nodes:    nil,
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the node list.
func (n *NodeList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (n *NodeList) Update(msg tea.Msg) (*NodeList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			n.MoveUp()
		case tea.KeyDown:
			n.MoveDown()
		default:
			// Handle other keys
		}
		switch msg.String() {
		case "k":
			n.MoveUp()
		case "j":
			n.MoveDown()
		}
	}
	return n, nil
}

// View renders the node list.
func (n *NodeList) View() string {
	if len(n.nodes) == 0 {
		return n.styles.Muted.Render("No documents here.")
	}

	// One line per node; keep two rows spare for surrounding chrome.
	visibleCount := n.height - 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if n.selected >= visibleCount {
		start = n.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(n.nodes) {
		end = len(n.nodes)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, n.renderNode(i, &n.nodes[i]))
	}

	return strings.Join(lines, "\n")
}

// renderNode formats a single tree node line.
func (n *NodeList) renderNode(index int, node *domain.DocumentNode) string {
	indicator := "  "
	if index == n.selected {
		indicator = "> "
	}

	marker := "[ ]"
	if node.IsSubscribed {
		marker = "[*]"
	}

	kind := " "
	if node.CanHaveChildren {
		kind = "/"
	}

	title := node.Title
	if title == "" {
		title = "(Untitled)"
	}

	maxTitleLen := n.width - 12
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	if index == n.selected {
		return n.styles.Selected.Render(fmt.Sprintf("%s%s %s%s", indicator, marker, title, kind))
	}

	markerStyle := n.styles.Muted
	if node.IsSubscribed {
		markerStyle = n.styles.Subscribed
	}
	titleStyle := n.styles.Normal
	if node.CanHaveChildren {
		titleStyle = n.styles.Folder
	}

	return n.styles.Normal.Render(indicator) +
		markerStyle.Render(marker) +
		titleStyle.Render(" "+title+kind)
}

// SetNodes replaces the listed nodes, folders first.
func (n *NodeList) SetNodes(folders, files []domain.DocumentNode) {
	nodes := make([]domain.DocumentNode, 0, len(folders)+len(files))
	nodes = append(nodes, folders...)
	nodes = append(nodes, files...)
	n.nodes = nodes
	if n.selected >= len(nodes) {
		n.selected = 0
	}
}

// Nodes returns the listed nodes.
func (n *NodeList) Nodes() []domain.DocumentNode {
	return n.nodes
}

// Selected returns the currently selected node, or nil when empty.
func (n *NodeList) Selected() *domain.DocumentNode {
	if len(n.nodes) == 0 || n.selected >= len(n.nodes) {
		return nil
	}
	return &n.nodes[n.selected]
}

// SelectedIndex returns the index of the selected node.
func (n *NodeList) SelectedIndex() int {
	return n.selected
}

// MoveUp moves the selection up one node.
func (n *NodeList) MoveUp() {
	if n.selected > 0 {
		n.selected--
	}
}

// MoveDown moves the selection down one node.
func (n *NodeList) MoveDown() {
	if n.selected < len(n.nodes)-1 {
		n.selected++
	}
}

// ResetSelection moves the selection back to the first node.
func (n *NodeList) ResetSelection() {
	n.selected = 0
}

// SetDimensions sets the list dimensions.
func (n *NodeList) SetDimensions(width, height int) {
	n.width = width
	n.height = height
}
