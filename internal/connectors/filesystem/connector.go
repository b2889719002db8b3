package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector lists a local directory tree as a document hierarchy.
// Directories become container nodes, regular files become leaves.
// Node IDs are paths relative to the configured root.
type Connector struct {
	connectionID string
	config       *Config
	mu           sync.Mutex
	closed       bool
	watcher      *fsnotify.Watcher
}

// New creates a new filesystem connector.
func New(connectionID string, cfg *Config) *Connector {
	return &Connector{
		connectionID: connectionID,
		config:       cfg,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// ConnectionID returns the configured connection ID.
func (c *Connector) ConnectionID() string {
	return c.connectionID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:        true,
		RequiresAuth:         false,
		SupportsValidation:   true,
		SupportsRateLimiting: false,
		SupportsPagination:   false,
	}
}

// Validate checks the configured root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnectorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	info, err := os.Stat(c.config.Path)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.config.Path)
	}

	// Readability check; permission problems surface here, not mid-listing.
	if _, err := os.ReadDir(c.config.Path); err != nil {
		return fmt.Errorf("read root: %w", err)
	}

	return nil
}

// ListDocuments walks the directory tree breadth-first so parents are always
// delivered before their children.
func (c *Connector) ListDocuments(ctx context.Context) (<-chan domain.RemoteDocument, <-chan error) {
	docsChan := make(chan domain.RemoteDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		sent := 0
		queue := []string{""} // relative dir paths, "" is the root

		for len(queue) > 0 {
			rel := queue[0]
			queue = queue[1:]

			entries, err := os.ReadDir(filepath.Join(c.config.Path, rel))
			if err != nil {
				errsChan <- fmt.Errorf("read dir %s: %w", rel, err)
				return
			}
			sortEntries(entries)

			for _, entry := range entries {
				select {
				case <-ctx.Done():
					return
				default:
				}

				name := entry.Name()
				if c.config.SkipHidden && strings.HasPrefix(name, ".") {
					continue
				}
				if !entry.IsDir() && !c.config.matchesExtensions(name) {
					continue
				}

				if sent >= domain.MaxSyncDocuments {
					errsChan <- &driven.ListingTruncated{Received: sent}
					return
				}

				doc := domain.RemoteDocument{
					ID:              filepath.ToSlash(filepath.Join(rel, name)),
					ParentID:        relParent(rel),
					Title:           name,
					CanHaveChildren: entry.IsDir(),
				}

				select {
				case <-ctx.Done():
					return
				case docsChan <- doc:
					sent++
				}

				if entry.IsDir() {
					queue = append(queue, filepath.Join(rel, name))
				}
			}
		}
	}()

	return docsChan, errsChan
}

// Watch emits a signal whenever anything under the root changes. Directories
// discovered while walking are added to the watch set; fsnotify does not
// watch recursively on its own.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	err = filepath.WalkDir(c.config.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if c.config.SkipHidden && path != c.config.Path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch tree: %w", err)
	}

	c.watcher = watcher
	events := make(chan struct{}, 1)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories join the watch set automatically.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				select {
				case events <- struct{}{}:
				default: // A pending signal already covers this change.
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return events, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// relParent converts a relative directory path into a parent reference.
// The root directory itself is not a node, so its entries are roots.
func relParent(rel string) *string {
	if rel == "" {
		return nil
	}
	p := filepath.ToSlash(rel)
	return &p
}

// sortEntries orders directories before files, each group alphabetically,
// so the streamed listing is deterministic.
func sortEntries(entries []os.DirEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
}
