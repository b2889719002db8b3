package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// treeStore implements driven.TreeStore.
//
// The parent index from the in-memory store maps onto the
// (connection_id, parent_id) index of the document_nodes table; insertion
// order is preserved through rowid ordering.
type treeStore struct {
	store *Store
}

var _ driven.TreeStore = (*treeStore)(nil)

const nodeColumns = "id, connection_id, parent_id, title, can_have_children, is_subscribed, storage_key"

// Put stores or updates a single node.
func (s *treeStore) Put(ctx context.Context, node domain.DocumentNode) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_nodes (connection_id, id, parent_id, title, can_have_children, is_subscribed, storage_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			title = excluded.title,
			can_have_children = excluded.can_have_children,
			is_subscribed = excluded.is_subscribed,
			storage_key = excluded.storage_key
	`, node.ConnectionID, node.ID, nullStrPtr(node.ParentID), node.Title,
		node.CanHaveChildren, node.IsSubscribed, nullStrPtr(node.StorageKey))

	if err != nil {
		return fmt.Errorf("saving node: %w", err)
	}
	return nil
}

// ReplaceAll discards the connection's nodes and stores the given set in a
// single transaction.
func (s *treeStore) ReplaceAll(ctx context.Context, connectionID string, nodes []domain.DocumentNode) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_nodes WHERE connection_id = ?", connectionID); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}

	for _, node := range nodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_nodes (connection_id, id, parent_id, title, can_have_children, is_subscribed, storage_key)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, connectionID, node.ID, nullStrPtr(node.ParentID), node.Title,
			node.CanHaveChildren, node.IsSubscribed, nullStrPtr(node.StorageKey)); err != nil {
			return fmt.Errorf("inserting node %s: %w", node.ID, err)
		}
	}

	return tx.Commit()
}

// Get retrieves one node by ID.
func (s *treeStore) Get(ctx context.Context, connectionID, id string) (*domain.DocumentNode, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM document_nodes WHERE connection_id = ? AND id = ?",
		connectionID, id)

	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// List returns all nodes for a connection in insertion order.
func (s *treeStore) List(ctx context.Context, connectionID string) ([]domain.DocumentNode, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM document_nodes WHERE connection_id = ? ORDER BY rowid",
		connectionID)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// Count returns the number of nodes held for a connection.
func (s *treeStore) Count(ctx context.Context, connectionID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_nodes WHERE connection_id = ?", connectionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting nodes: %w", err)
	}
	return count, nil
}

// Children returns the direct children of parentID in insertion order.
func (s *treeStore) Children(ctx context.Context, connectionID string, parentID *string) ([]domain.DocumentNode, error) {
	var rows *sql.Rows
	var err error

	if parentID == nil {
		rows, err = s.store.db.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM document_nodes WHERE connection_id = ? AND parent_id IS NULL ORDER BY rowid",
			connectionID)
	} else {
		rows, err = s.store.db.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM document_nodes WHERE connection_id = ? AND parent_id = ? ORDER BY rowid",
			connectionID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// SetSubscriptions applies per-node subscription flags in one transaction,
// skipping ids that no longer exist.
func (s *treeStore) SetSubscriptions(ctx context.Context, connectionID string, subs map[string]bool) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for id, subscribed := range subs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE document_nodes SET is_subscribed = ?
			WHERE connection_id = ? AND id = ?
		`, subscribed, connectionID, id); err != nil {
			return fmt.Errorf("updating subscription %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Clear removes every node for a connection.
func (s *treeStore) Clear(ctx context.Context, connectionID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_nodes WHERE connection_id = ?", connectionID); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}
	return nil
}

func scanNode(row rowScanner) (*domain.DocumentNode, error) {
	var node domain.DocumentNode
	var parentID, storageKey sql.NullString

	if err := row.Scan(&node.ID, &node.ConnectionID, &parentID, &node.Title,
		&node.CanHaveChildren, &node.IsSubscribed, &storageKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}

	if parentID.Valid {
		node.ParentID = &parentID.String
	}
	if storageKey.Valid {
		node.StorageKey = &storageKey.String
	}
	return &node, nil
}

func collectNodes(rows *sql.Rows) ([]domain.DocumentNode, error) {
	var result []domain.DocumentNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *node)
	}
	return result, rows.Err()
}

// nullStrPtr converts a *string to a NULL-able driver value.
func nullStrPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
