package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/canopy-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.canopy/data/canopy.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".canopy", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "canopy.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ConnectionStore returns a ConnectionStore interface backed by this store.
func (s *Store) ConnectionStore() driven.ConnectionStore {
	return &connectionStore{store: s}
}

// TreeStore returns a TreeStore interface backed by this store.
func (s *Store) TreeStore() driven.TreeStore {
	return &treeStore{store: s}
}

// SyncJobStore returns a SyncJobStore interface backed by this store.
func (s *Store) SyncJobStore() driven.SyncJobStore {
	return &syncJobStore{store: s}
}

// SubscriptionEndpoint returns the subscription persistence boundary
// backed by this store.
func (s *Store) SubscriptionEndpoint() driven.SubscriptionEndpoint {
	return &subscriptionEndpoint{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Connection Store ====================

// connectionStore implements driven.ConnectionStore.
type connectionStore struct {
	store *Store
}

var _ driven.ConnectionStore = (*connectionStore)(nil)

// Save stores or updates a connection.
func (s *connectionStore) Save(ctx context.Context, conn domain.Connection) error {
	configJSON, err := json.Marshal(conn.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO connections (id, type, integration_id, integration_name, integration_logo, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			integration_id = excluded.integration_id,
			integration_name = excluded.integration_name,
			integration_logo = excluded.integration_logo,
			config = excluded.config,
			updated_at = excluded.updated_at
	`, conn.ID, conn.Type, conn.IntegrationID, conn.IntegrationName, conn.IntegrationLogo,
		string(configJSON), conn.CreatedAt, conn.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

// Get retrieves a connection by ID.
func (s *connectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, type, integration_id, integration_name, integration_logo, config, created_at, updated_at
		FROM connections WHERE id = ?
	`, id)

	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return conn, nil
}

// List returns all connections ordered by creation time.
func (s *connectionStore) List(ctx context.Context) ([]domain.Connection, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, type, integration_id, integration_name, integration_logo, config, created_at, updated_at
		FROM connections ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var result []domain.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *conn)
	}
	return result, rows.Err()
}

// Delete removes a connection.
func (s *connectionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*domain.Connection, error) {
	var conn domain.Connection
	var integrationID, integrationName, integrationLogo sql.NullString
	var configJSON string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&conn.ID, &conn.Type, &integrationID, &integrationName,
		&integrationLogo, &configJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning connection: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &conn.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	conn.IntegrationID = integrationID.String
	conn.IntegrationName = integrationName.String
	conn.IntegrationLogo = integrationLogo.String
	if createdAt.Valid {
		conn.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		conn.UpdatedAt = updatedAt.Time
	}

	return &conn, nil
}
