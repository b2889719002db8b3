package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector lists one GitHub repository's file tree.
type Connector struct {
	connectionID string
	config       *Config
	client       *Client
	mu           sync.Mutex
	closed       bool
}

// New creates a new GitHub connector.
func New(ctx context.Context, connectionID string, cfg *Config) *Connector {
	return &Connector{
		connectionID: connectionID,
		config:       cfg,
		client:       NewClient(ctx, cfg.Token),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "github"
}

// ConnectionID returns the configured connection ID.
func (c *Connector) ConnectionID() string {
	return c.connectionID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:        false, // No webhooks in CLI
		RequiresAuth:         true,
		SupportsValidation:   true,
		SupportsRateLimiting: true,
		SupportsPagination:   true,
	}
}

// Validate checks if the GitHub connector is properly configured.
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

	if err := c.client.ValidateCredentials(ctx); err != nil {
		if IsUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}

	// The repository must exist and be accessible with this token.
	if _, err := c.client.GetRepository(ctx, c.config.Owner, c.config.Repo); err != nil {
		return fmt.Errorf("get repo %s/%s: %w", c.config.Owner, c.config.Repo, err)
	}

	return nil
}

// ListDocuments streams the repository tree. The whole tree comes back in
// one recursive API call; streaming happens from the decoded entries.
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

		ref := c.config.Branch
		if ref == "" {
			repo, err := c.client.GetRepository(ctx, c.config.Owner, c.config.Repo)
			if err != nil {
				errsChan <- fmt.Errorf("get repo: %w", err)
				return
			}
			ref = repo.GetDefaultBranch()
		}

		tree, err := c.client.GetTree(ctx, c.config.Owner, c.config.Repo, ref)
		if err != nil {
			if IsRateLimited(err) {
				errsChan <- fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
				return
			}
			errsChan <- fmt.Errorf("get tree: %w", err)
			return
		}

		sent := 0
		for _, doc := range treeToDocuments(tree.Entries) {
			if sent >= domain.MaxSyncDocuments {
				errsChan <- &driven.ListingTruncated{Received: sent}
				return
			}

			select {
			case <-ctx.Done():
				return
			case docsChan <- doc:
				sent++
			}
		}

		// GitHub truncates very large recursive trees server-side.
		if tree.GetTruncated() {
			errsChan <- &driven.ListingTruncated{Received: sent}
		}
	}()

	return docsChan, errsChan
}

// Watch is not supported for GitHub (no webhooks in CLI).
func (c *Connector) Watch(_ context.Context) (<-chan struct{}, error) {
	return nil, domain.ErrNotImplemented
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
