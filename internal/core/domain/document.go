package domain

// DocumentNode represents one entry in a connected source's hierarchy,
// either a folder or a file. Nodes form a forest: roots have a nil
// ParentID, and every non-nil ParentID must reference a node in the same
// connection's tree with CanHaveChildren set.
type DocumentNode struct {
	// ID is the remote identifier, stable and unique within a connection.
	ID string

	// ConnectionID links to the Connection that owns this node.
	ConnectionID string

	// ParentID references the containing folder, nil for root-level nodes.
	ParentID *string

	// Title is the human-readable display name.
	Title string

	// CanHaveChildren is true for containers ("folders"), false for leaves.
	CanHaveChildren bool

	// IsSubscribed marks the node for inclusion in content sync.
	IsSubscribed bool

	// StorageKey references ingested content, nil until ingestion completes.
	StorageKey *string
}

// IsRoot reports whether the node sits at the top level of its tree.
func (n *DocumentNode) IsRoot() bool {
	return n.ParentID == nil
}

// RemoteDocument is a raw descriptor produced by a connector during a
// listing. It carries only the fields the remote source exposes; the sync
// orchestrator converts it into a DocumentNode.
type RemoteDocument struct {
	// ID is the remote identifier.
	ID string

	// ParentID references the containing folder, nil for root-level items.
	ParentID *string

	// Title is the display name.
	Title string

	// CanHaveChildren is true if the remote item is a container.
	CanHaveChildren bool

	// StorageKey optionally references already-ingested content for leaves.
	StorageKey string
}
