package driving

import (
	"context"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Navigator projects a connection's document tree into a browsable view.
// It is read-only: nothing it does mutates the tree store.
type Navigator interface {
	// View produces the visible children of the cursor and the breadcrumb
	// path from root to cursor. A nil cursor selects the root level.
	//
	// A non-empty query switches to search mode: the result contains every
	// node across the whole tree whose title matches the query
	// case-insensitively, and breadcrumbs are suppressed. Searching and
	// folder-drilling are mutually exclusive view modes.
	View(ctx context.Context, connectionID string, cursor *string, query string) (*TreeView, error)
}

// TreeView is one projection of a document tree: what is visible at the
// current cursor (or matching the current search), plus how the user got
// there.
type TreeView struct {
	// Folders are the visible container nodes, listed before files.
	Folders []domain.DocumentNode

	// Files are the visible leaf nodes.
	Files []domain.DocumentNode

	// Breadcrumbs is the ancestor path ordered root to cursor.
	// Empty at the root level and always empty in search mode.
	Breadcrumbs []domain.DocumentNode

	// Searching is true when the view is a flat search result.
	Searching bool
}

// BreadcrumbTarget resolves a breadcrumb navigation to a new cursor.
// Index i selects the ancestor at breadcrumbs[i]; index -1 resets to root
// (nil cursor). Out-of-range indexes also reset to root.
func (v *TreeView) BreadcrumbTarget(index int) *string {
	if index < 0 || index >= len(v.Breadcrumbs) {
		return nil
	}
	id := v.Breadcrumbs[index].ID
	return &id
}
