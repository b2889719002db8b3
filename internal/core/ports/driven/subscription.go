package driven

import "context"

// SubscriptionEndpoint is the authoritative persistence boundary for
// subscription changes. It applies the same flag to every listed ID as a
// single batch; there are no partial-success semantics. Any failure fails
// the whole batch from the caller's perspective, and the caller rolls back
// its optimistic local state.
type SubscriptionEndpoint interface {
	// Apply persists the subscription flag for every document in order.
	Apply(ctx context.Context, connectionID string, documentIDs []string, isSubscribed bool) error
}
