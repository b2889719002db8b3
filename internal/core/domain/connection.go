package domain

import "time"

// Connection represents a linked external account that exposes a document
// tree. Each connection produces documents via a connector and owns exactly
// one document tree and at most one sync job.
type Connection struct {
	// ID is the unique identifier for the connection.
	ID string

	// Type identifies the connector type (e.g., "filesystem", "googledrive").
	Type string

	// IntegrationID identifies the external integration behind this connection.
	IntegrationID string

	// IntegrationName is the human-readable integration name.
	IntegrationName string

	// IntegrationLogo is a URL or path to the integration's logo asset.
	IntegrationLogo string

	// Config contains connector-specific configuration.
	Config map[string]string

	// CreatedAt is when the connection was established.
	CreatedAt time.Time

	// UpdatedAt is when the connection was last updated.
	UpdatedAt time.Time
}

// DisplayName returns the integration name, falling back to the connector
// type when the integration did not supply one.
func (c *Connection) DisplayName() string {
	if c.IntegrationName != "" {
		return c.IntegrationName
	}
	return c.Type
}
