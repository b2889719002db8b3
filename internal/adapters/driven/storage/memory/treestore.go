// Package memory provides in-memory implementations of the driven storage
// ports. Used for tests and ephemeral (--no-persist) runs.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// rootKey indexes root-level nodes (nil ParentID) in the children index.
const rootKey = ""

// Ensure TreeStore implements the interface.
var _ driven.TreeStore = (*TreeStore)(nil)

// TreeStore is an in-memory implementation of driven.TreeStore.
// Alongside the flat node map it maintains a parentID -> child ids index
// so descendant enumeration is proportional to subtree size.
type TreeStore struct {
	mu sync.RWMutex
	// nodes maps connectionID -> nodeID -> node.
	nodes map[string]map[string]domain.DocumentNode
	// children maps connectionID -> parent key -> ordered child ids.
	children map[string]map[string][]string
}

// NewTreeStore creates a new in-memory tree store.
func NewTreeStore() *TreeStore {
	return &TreeStore{
		nodes:    make(map[string]map[string]domain.DocumentNode),
		children: make(map[string]map[string][]string),
	}
}

// Put stores or updates a single node.
func (s *TreeStore) Put(_ context.Context, node domain.DocumentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := node.ConnectionID
	if s.nodes[conn] == nil {
		s.nodes[conn] = make(map[string]domain.DocumentNode)
		s.children[conn] = make(map[string][]string)
	}

	prev, existed := s.nodes[conn][node.ID]
	if existed {
		s.unindex(conn, prev)
	}
	s.nodes[conn][node.ID] = node
	s.index(conn, node)
	return nil
}

// ReplaceAll discards the connection's nodes and stores the given set.
func (s *TreeStore) ReplaceAll(_ context.Context, connectionID string, nodes []domain.DocumentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[connectionID] = make(map[string]domain.DocumentNode, len(nodes))
	s.children[connectionID] = make(map[string][]string)
	for _, node := range nodes {
		s.nodes[connectionID][node.ID] = node
		s.index(connectionID, node)
	}
	return nil
}

// Get retrieves one node by ID.
func (s *TreeStore) Get(_ context.Context, connectionID, id string) (*domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[connectionID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &node, nil
}

// List returns all nodes for a connection in insertion order of the index.
func (s *TreeStore) List(_ context.Context, connectionID string) ([]domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.DocumentNode
	s.walk(connectionID, rootKey, &result)
	return result, nil
}

// Count returns the number of nodes held for a connection.
func (s *TreeStore) Count(_ context.Context, connectionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes[connectionID]), nil
}

// Children returns the direct children of parentID in insertion order.
func (s *TreeStore) Children(_ context.Context, connectionID string, parentID *string) ([]domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := rootKey
	if parentID != nil {
		key = *parentID
	}

	ids := s.children[connectionID][key]
	result := make([]domain.DocumentNode, 0, len(ids))
	for _, id := range ids {
		if node, ok := s.nodes[connectionID][id]; ok {
			result = append(result, node)
		}
	}
	return result, nil
}

// SetSubscriptions applies per-node subscription flags, skipping ids that
// no longer exist.
func (s *TreeStore) SetSubscriptions(_ context.Context, connectionID string, subs map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, subscribed := range subs {
		node, ok := s.nodes[connectionID][id]
		if !ok {
			continue
		}
		node.IsSubscribed = subscribed
		s.nodes[connectionID][id] = node
	}
	return nil
}

// Clear removes every node for a connection.
func (s *TreeStore) Clear(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.nodes, connectionID)
	delete(s.children, connectionID)
	return nil
}

// index adds a node to its parent's child list. Caller holds the lock.
func (s *TreeStore) index(connectionID string, node domain.DocumentNode) {
	key := rootKey
	if node.ParentID != nil {
		key = *node.ParentID
	}
	s.children[connectionID][key] = append(s.children[connectionID][key], node.ID)
}

// unindex removes a node from its parent's child list. Caller holds the lock.
func (s *TreeStore) unindex(connectionID string, node domain.DocumentNode) {
	key := rootKey
	if node.ParentID != nil {
		key = *node.ParentID
	}
	ids := s.children[connectionID][key]
	for i, id := range ids {
		if id == node.ID {
			s.children[connectionID][key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// walk appends the subtree under key depth-first in index order.
// Caller holds the lock.
func (s *TreeStore) walk(connectionID, key string, out *[]domain.DocumentNode) {
	for _, id := range s.children[connectionID][key] {
		node, ok := s.nodes[connectionID][id]
		if !ok {
			continue
		}
		*out = append(*out, node)
		if node.CanHaveChildren {
			s.walk(connectionID, id, out)
		}
	}
}
