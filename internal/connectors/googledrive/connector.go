package googledrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector lists a Google Drive hierarchy. Folders are walked breadth-first
// with one paginated Files.List query per folder, so parents are always
// delivered before their children.
type Connector struct {
	connectionID string
	config       *Config
	rateLimiter  *RateLimiter
	mu           sync.Mutex
	svc          *drive.Service
	closed       bool
}

// New creates a new Google Drive connector.
func New(connectionID string, cfg *Config) *Connector {
	return &Connector{
		connectionID: connectionID,
		config:       cfg,
		rateLimiter:  NewRateLimiter(),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "googledrive"
}

// ConnectionID returns the configured connection ID.
func (c *Connector) ConnectionID() string {
	return c.connectionID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:        false, // Push notifications need a public webhook
		RequiresAuth:         true,
		SupportsValidation:   true,
		SupportsRateLimiting: true,
		SupportsPagination:   true,
	}
}

// ensureService initializes the Drive service lazily.
func (c *Connector) ensureService(ctx context.Context) (*drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.svc != nil {
		return c.svc, nil
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.config.Token})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// Validate checks the token by fetching the account profile.
func (c *Connector) Validate(ctx context.Context) error {
	svc, err := c.ensureService(ctx)
	if err != nil {
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		if isUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	return nil
}

// ListDocuments walks the Drive folder tree breadth-first.
func (c *Connector) ListDocuments(ctx context.Context) (<-chan domain.RemoteDocument, <-chan error) {
	docsChan := make(chan domain.RemoteDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		svc, err := c.ensureService(ctx)
		if err != nil {
			errsChan <- err
			return
		}

		rootID, err := c.resolveRoot(ctx, svc)
		if err != nil {
			errsChan <- err
			return
		}

		sent := 0
		queue := []string{rootID}

		for len(queue) > 0 {
			folderID := queue[0]
			queue = queue[1:]

			pageToken := ""
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := c.rateLimiter.Wait(ctx); err != nil {
					return
				}

				call := svc.Files.List().
					Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
					PageSize(c.config.PageSize).
					Fields("nextPageToken, files(id, name, mimeType, parents)").
					OrderBy("folder,name").
					Context(ctx)
				if pageToken != "" {
					call = call.PageToken(pageToken)
				}

				list, err := call.Do()
				if err != nil {
					errsChan <- c.wrapError(err)
					return
				}

				for _, file := range list.Files {
					if sent >= domain.MaxSyncDocuments {
						errsChan <- &driven.ListingTruncated{Received: sent}
						return
					}

					select {
					case <-ctx.Done():
						return
					case docsChan <- fileToDocument(file, rootID):
						sent++
					}

					if file.MimeType == MimeTypeFolder {
						queue = append(queue, file.Id)
					}
				}

				pageToken = list.NextPageToken
				if pageToken == "" {
					break
				}
			}
		}
	}()

	return docsChan, errsChan
}

// resolveRoot returns the folder ID the listing starts from. The alias
// "root" has to be resolved to a real ID so parent masking works.
func (c *Connector) resolveRoot(ctx context.Context, svc *drive.Service) (string, error) {
	if c.config.FolderID != "" {
		return c.config.FolderID, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	root, err := svc.Files.Get("root").Fields("id").Context(ctx).Do()
	if err != nil {
		return "", c.wrapError(err)
	}
	return root.Id, nil
}

// Watch is not supported; Drive push notifications require a webhook.
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

// wrapError maps googleapi errors onto domain errors.
func (c *Connector) wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return domain.ErrAuthInvalid
		case http.StatusTooManyRequests:
			c.rateLimiter.RecordRateLimitError(0)
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}
	return err
}

func isUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}
