package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure SubscriptionEndpoint implements the interface.
var _ driven.SubscriptionEndpoint = (*SubscriptionEndpoint)(nil)

// SubscriptionEndpoint is an in-memory subscription persistence boundary.
// It simply records the last applied flag per document; used for ephemeral
// runs where the SQLite store is disabled.
type SubscriptionEndpoint struct {
	mu      sync.RWMutex
	applied map[string]map[string]bool
}

// NewSubscriptionEndpoint creates a new in-memory subscription endpoint.
func NewSubscriptionEndpoint() *SubscriptionEndpoint {
	return &SubscriptionEndpoint{
		applied: make(map[string]map[string]bool),
	}
}

// Apply records the subscription flag for every document ID.
func (e *SubscriptionEndpoint) Apply(_ context.Context, connectionID string, documentIDs []string, isSubscribed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.applied[connectionID] == nil {
		e.applied[connectionID] = make(map[string]bool)
	}
	for _, id := range documentIDs {
		e.applied[connectionID][id] = isSubscribed
	}
	return nil
}

// Applied reports the last persisted flag for a document.
func (e *SubscriptionEndpoint) Applied(connectionID, documentID string) (bool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	flag, ok := e.applied[connectionID][documentID]
	return flag, ok
}
