package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canopy-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

func strPtr(s string) *string { return &s }

// navTree builds root -> [A(folder), readme.md], A -> [B(folder), a1.txt],
// B -> [deep.txt].
func navTree(t *testing.T, connID string) *memory.TreeStore {
	t.Helper()
	store := memory.NewTreeStore()
	nodes := []domain.DocumentNode{
		{ID: "A", ConnectionID: connID, Title: "A", CanHaveChildren: true},
		{ID: "readme", ConnectionID: connID, Title: "readme.md"},
		{ID: "B", ConnectionID: connID, ParentID: strPtr("A"), Title: "B", CanHaveChildren: true},
		{ID: "a1", ConnectionID: connID, ParentID: strPtr("A"), Title: "a1.txt"},
		{ID: "deep", ConnectionID: connID, ParentID: strPtr("B"), Title: "deep.txt"},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), connID, nodes))
	return store
}

func TestNavigator_RootView(t *testing.T) {
	nav := NewNavigator(navTree(t, "conn-1"))

	view, err := nav.View(context.Background(), "conn-1", nil, "")
	require.NoError(t, err)

	require.Len(t, view.Folders, 1)
	assert.Equal(t, "A", view.Folders[0].ID)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "readme", view.Files[0].ID)
	assert.Empty(t, view.Breadcrumbs)
	assert.False(t, view.Searching)
}

func TestNavigator_BreadcrumbsRootToCursor(t *testing.T) {
	nav := NewNavigator(navTree(t, "conn-1"))
	ctx := context.Background()

	// Drill into B: breadcrumbs are [A, B], ordered root to cursor.
	view, err := nav.View(ctx, "conn-1", strPtr("B"), "")
	require.NoError(t, err)

	require.Len(t, view.Breadcrumbs, 2)
	assert.Equal(t, "A", view.Breadcrumbs[0].ID)
	assert.Equal(t, "B", view.Breadcrumbs[1].ID)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "deep", view.Files[0].ID)

	// Navigating to breadcrumb index 0 moves the cursor to A.
	cursor := view.BreadcrumbTarget(0)
	require.NotNil(t, cursor)
	assert.Equal(t, "A", *cursor)

	view, err = nav.View(ctx, "conn-1", cursor, "")
	require.NoError(t, err)
	require.Len(t, view.Breadcrumbs, 1)
	assert.Equal(t, "A", view.Breadcrumbs[0].ID)

	// Index -1 resets to root.
	assert.Nil(t, view.BreadcrumbTarget(-1))
}

func TestNavigator_SearchMatchesWholeTree(t *testing.T) {
	nav := NewNavigator(navTree(t, "conn-1"))

	// Search from inside B; matches must span the whole tree and
	// breadcrumbs must be suppressed.
	view, err := nav.View(context.Background(), "conn-1", strPtr("B"), "A1")
	require.NoError(t, err)

	assert.True(t, view.Searching)
	assert.Empty(t, view.Breadcrumbs)
	assert.Empty(t, view.Folders)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "a1", view.Files[0].ID)
}

func TestNavigator_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	nav := NewNavigator(navTree(t, "conn-1"))

	view, err := nav.View(context.Background(), "conn-1", nil, "EaD")
	require.NoError(t, err)

	// readme.md and deep.txt? Only titles containing "ead": readme.md.
	require.Len(t, view.Files, 1)
	assert.Equal(t, "readme", view.Files[0].ID)
}

func TestNavigator_BlankQueryIsBrowseMode(t *testing.T) {
	nav := NewNavigator(navTree(t, "conn-1"))

	view, err := nav.View(context.Background(), "conn-1", strPtr("A"), "   ")
	require.NoError(t, err)

	assert.False(t, view.Searching)
	require.Len(t, view.Breadcrumbs, 1)
	assert.Equal(t, "A", view.Breadcrumbs[0].ID)
	require.Len(t, view.Folders, 1)
	assert.Equal(t, "B", view.Folders[0].ID)
}

func TestNavigator_FoldersBeforeFiles(t *testing.T) {
	store := memory.NewTreeStore()
	nodes := []domain.DocumentNode{
		{ID: "f1", ConnectionID: "conn-1", Title: "zz.txt"},
		{ID: "d1", ConnectionID: "conn-1", Title: "aa", CanHaveChildren: true},
		{ID: "f2", ConnectionID: "conn-1", Title: "bb.txt"},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), "conn-1", nodes))

	view, err := NewNavigator(store).View(context.Background(), "conn-1", nil, "")
	require.NoError(t, err)

	require.Len(t, view.Folders, 1)
	require.Len(t, view.Files, 2)
	// Insertion order preserved within each group.
	assert.Equal(t, "f1", view.Files[0].ID)
	assert.Equal(t, "f2", view.Files[1].ID)
}

func TestNavigator_EmptyTree(t *testing.T) {
	nav := NewNavigator(memory.NewTreeStore())

	view, err := nav.View(context.Background(), "conn-1", nil, "")
	require.NoError(t, err)
	assert.Empty(t, view.Folders)
	assert.Empty(t, view.Files)
}
