package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

func testNodes() ([]domain.DocumentNode, []domain.DocumentNode) {
	folders := []domain.DocumentNode{
		{ID: "folder-1", Title: "Notes", CanHaveChildren: true},
	}
	files := []domain.DocumentNode{
		{ID: "doc-1", Title: "Readme", IsSubscribed: true},
		{ID: "doc-2", Title: "Todo"},
	}
	return folders, files
}

func TestNewNodeList(t *testing.T) {
	nl := NewNodeList(nil)

	require.NotNil(t, nl)
	assert.Empty(t, nl.Nodes())
	assert.Nil(t, nl.Selected())
}

func TestNodeList_SetNodes_FoldersFirst(t *testing.T) {
	nl := NewNodeList(nil)
	folders, files := testNodes()

	nl.SetNodes(folders, files)

	nodes := nl.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "folder-1", nodes[0].ID)
	assert.Equal(t, "doc-1", nodes[1].ID)
}

func TestNodeList_SetNodes_ClampsSelection(t *testing.T) {
	nl := NewNodeList(nil)
	folders, files := testNodes()
	nl.SetNodes(folders, files)
	nl.MoveDown()
	nl.MoveDown()

	nl.SetNodes(nil, files[:1])

	assert.Equal(t, 0, nl.SelectedIndex())
}

func TestNodeList_Navigation(t *testing.T) {
	nl := NewNodeList(nil)
	folders, files := testNodes()
	nl.SetNodes(folders, files)

	nl.MoveDown()
	assert.Equal(t, 1, nl.SelectedIndex())
	assert.Equal(t, "doc-1", nl.Selected().ID)

	nl.MoveDown()
	nl.MoveDown() // already at the end
	assert.Equal(t, 2, nl.SelectedIndex())

	nl.MoveUp()
	assert.Equal(t, 1, nl.SelectedIndex())

	nl.ResetSelection()
	assert.Equal(t, 0, nl.SelectedIndex())
}

func TestNodeList_Update_Keys(t *testing.T) {
	nl := NewNodeList(nil)
	folders, files := testNodes()
	nl.SetNodes(folders, files)

	nl.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, nl.SelectedIndex())

	nl.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, nl.SelectedIndex())

	nl.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, nl.SelectedIndex())

	nl.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, nl.SelectedIndex())
}

func TestNodeList_View_Empty(t *testing.T) {
	nl := NewNodeList(nil)

	view := nl.View()
	assert.Contains(t, view, "No documents here.")
}

func TestNodeList_View_Markers(t *testing.T) {
	nl := NewNodeList(nil)
	folders, files := testNodes()
	nl.SetNodes(folders, files)
	nl.SetDimensions(80, 24)

	view := nl.View()
	assert.Contains(t, view, "Notes/")
	assert.Contains(t, view, "[*]")
	assert.Contains(t, view, "Readme")
}

func TestNodeList_View_ScrollWindow(t *testing.T) {
	nl := NewNodeList(nil)
	files := make([]domain.DocumentNode, 20)
	for i := range files {
		files[i] = domain.DocumentNode{ID: string(rune('a' + i)), Title: string(rune('a' + i))}
	}
	nl.SetNodes(nil, files)
	nl.SetDimensions(80, 6)

	for i := 0; i < 10; i++ {
		nl.MoveDown()
	}

	view := nl.View()
	// Selection stays visible even past the window height.
	assert.Contains(t, view, "> ")
}
