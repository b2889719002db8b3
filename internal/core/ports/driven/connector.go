package driven

import (
	"context"
	"errors"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Connector streams the document hierarchy of one connected source.
// Each connector type (filesystem, googledrive, github) implements this
// interface. Connectors honour the domain.MaxSyncDocuments cap and signal
// a cut-off listing with the ListingTruncated sentinel.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// ConnectionID returns the configured connection ID.
	ConnectionID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks if the connector is properly configured and
	// authenticated. For API connectors this makes a lightweight test
	// call; for filesystem it checks the path exists and is readable.
	Validate(ctx context.Context) error

	// ListDocuments streams the source's hierarchy as raw descriptors.
	// The documents channel is closed when the listing finishes. If the
	// listing exceeds domain.MaxSyncDocuments the connector stops and
	// sends ListingTruncated on the error channel before closing; this is
	// a successful completion, not a failure.
	ListDocuments(ctx context.Context) (<-chan domain.RemoteDocument, <-chan error)

	// Watch listens for changes on the remote source.
	// Only available if SupportsWatch is true.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsWatch indicates the connector can push change events.
	SupportsWatch bool

	// RequiresAuth indicates the connector needs authentication.
	// False for local connectors like filesystem.
	RequiresAuth bool

	// SupportsValidation indicates Validate() performs an actual check.
	SupportsValidation bool

	// SupportsRateLimiting indicates the connector throttles its own
	// API requests. Informational.
	SupportsRateLimiting bool

	// SupportsPagination indicates the connector handles paginated APIs
	// internally. Informational.
	SupportsPagination bool
}

// ConnectorFactory creates connectors from connection configuration.
type ConnectorFactory interface {
	// Create builds a connector for the given connection.
	// Returns domain.ErrUnsupportedType for unknown connector types.
	Create(ctx context.Context, conn domain.Connection) (Connector, error)
}

// ListingTruncated is sent on the error channel when a listing is stopped
// at the document cap. It is a successful completion marker, not a failure.
type ListingTruncated struct {
	// Received is how many documents were delivered before the cut-off.
	Received int
}

// Error implements the error interface.
// This allows ListingTruncated to be sent on the error channel.
func (ListingTruncated) Error() string {
	return "listing truncated"
}

// IsListingTruncated checks if an error is actually a truncation marker.
// Returns the ListingTruncated and true if it is, nil and false otherwise.
func IsListingTruncated(err error) (*ListingTruncated, bool) {
	var lt *ListingTruncated
	if errors.As(err, &lt) {
		return lt, true
	}
	return nil, false
}
