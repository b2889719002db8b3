package driving

import "context"

// SubscriptionService toggles subscription on a node and all of its
// descendants, atomically from the user's point of view.
type SubscriptionService interface {
	// Toggle flips the subscription flag of the node and applies the new
	// flag to every descendant. The local tree is updated optimistically
	// before the persistence call; on persistence failure the pre-toggle
	// state is restored exactly and the error is returned for user
	// notification. There is no automatic retry.
	Toggle(ctx context.Context, connectionID, nodeID string) (*ToggleResult, error)
}

// ToggleResult describes a successfully persisted toggle.
type ToggleResult struct {
	// NodeID is the node the user toggled.
	NodeID string

	// AffectedIDs lists every node whose flag changed: the node itself
	// plus, for containers, all transitive descendants.
	AffectedIDs []string

	// IsSubscribed is the new flag applied to every affected node.
	IsSubscribed bool
}
