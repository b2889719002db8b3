package driven

import (
	"context"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// TreeStore holds the authoritative flat collection of document nodes for
// each connection, plus a parent-to-children index so descendant
// enumeration is proportional to subtree size.
//
// The store does not validate tree shape: a ParentID referencing a missing
// node or a leaf is a defect in the upstream listing, not handled here.
type TreeStore interface {
	// Put stores or updates a single node. Used by the sync orchestrator
	// as documents arrive.
	Put(ctx context.Context, node domain.DocumentNode) error

	// ReplaceAll discards every node for the connection and stores the
	// given set. The children index is rebuilt.
	ReplaceAll(ctx context.Context, connectionID string, nodes []domain.DocumentNode) error

	// Get retrieves one node by ID.
	Get(ctx context.Context, connectionID, id string) (*domain.DocumentNode, error)

	// List returns all nodes for a connection.
	List(ctx context.Context, connectionID string) ([]domain.DocumentNode, error)

	// Count returns the number of nodes held for a connection.
	Count(ctx context.Context, connectionID string) (int, error)

	// Children returns the direct children of parentID.
	// A nil parentID selects root-level nodes.
	Children(ctx context.Context, connectionID string, parentID *string) ([]domain.DocumentNode, error)

	// SetSubscriptions applies per-node subscription flags. IDs that no
	// longer exist are skipped silently; a toggle response arriving after
	// a resync must not resurrect wiped nodes.
	SetSubscriptions(ctx context.Context, connectionID string, subs map[string]bool) error

	// Clear removes every node for a connection.
	Clear(ctx context.Context, connectionID string) error
}
