package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// Ensure Navigator implements the interface.
var _ driving.Navigator = (*Navigator)(nil)

// Navigator projects the tree store into browsable views.
// It never mutates the store.
type Navigator struct {
	treeStore driven.TreeStore
}

// NewNavigator creates a new navigator over the given tree store.
func NewNavigator(treeStore driven.TreeStore) *Navigator {
	return &Navigator{treeStore: treeStore}
}

// View produces the visible children of the cursor plus breadcrumbs, or a
// flat global search result when query is non-empty.
func (n *Navigator) View(
	ctx context.Context, connectionID string, cursor *string, query string,
) (*driving.TreeView, error) {
	if strings.TrimSpace(query) != "" {
		return n.searchView(ctx, connectionID, query)
	}

	children, err := n.treeStore.Children(ctx, connectionID, cursor)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	view := &driving.TreeView{}
	view.Folders, view.Files = splitByKind(children)

	view.Breadcrumbs, err = n.breadcrumbs(ctx, connectionID, cursor)
	if err != nil {
		return nil, err
	}

	return view, nil
}

// searchView matches titles case-insensitively across the entire tree.
// Breadcrumbs are suppressed: searching and folder-drilling are mutually
// exclusive view modes.
func (n *Navigator) searchView(ctx context.Context, connectionID, query string) (*driving.TreeView, error) {
	nodes, err := n.treeStore.List(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var matches []domain.DocumentNode
	for _, node := range nodes {
		if strings.Contains(strings.ToLower(node.Title), needle) {
			matches = append(matches, node)
		}
	}

	view := &driving.TreeView{Searching: true}
	view.Folders, view.Files = splitByKind(matches)
	return view, nil
}

// breadcrumbs walks parent links from the cursor to the root and returns
// the path ordered root to cursor. A nil cursor has no breadcrumbs.
func (n *Navigator) breadcrumbs(ctx context.Context, connectionID string, cursor *string) ([]domain.DocumentNode, error) {
	if cursor == nil {
		return nil, nil
	}

	var path []domain.DocumentNode
	current := cursor
	for current != nil {
		node, err := n.treeStore.Get(ctx, connectionID, *current)
		if err != nil {
			return nil, fmt.Errorf("resolve breadcrumb %s: %w", *current, err)
		}
		path = append([]domain.DocumentNode{*node}, path...)
		current = node.ParentID
	}

	return path, nil
}

// splitByKind orders folders before files, preserving store order within
// each group.
func splitByKind(nodes []domain.DocumentNode) (folders, files []domain.DocumentNode) {
	for _, node := range nodes {
		if node.CanHaveChildren {
			folders = append(folders, node)
		} else {
			files = append(files, node)
		}
	}
	return folders, files
}
