package connectors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/canopy-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/canopy-cli/internal/connectors/github"
	"github.com/custodia-labs/canopy-cli/internal/connectors/googledrive"
	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory builds connectors from connection configuration.
type Factory struct{}

// NewFactory creates a connector factory.
func NewFactory() *Factory {
	return &Factory{}
}

// SupportedTypes lists the connector types this factory can build.
func (f *Factory) SupportedTypes() []string {
	return []string{"filesystem", "googledrive", "github"}
}

// Create builds a connector for the given connection.
func (f *Factory) Create(ctx context.Context, conn domain.Connection) (driven.Connector, error) {
	switch conn.Type {
	case "filesystem":
		cfg, err := filesystem.ParseConfig(conn)
		if err != nil {
			return nil, err
		}
		return filesystem.New(conn.ID, cfg), nil

	case "googledrive":
		cfg, err := googledrive.ParseConfig(conn)
		if err != nil {
			return nil, err
		}
		return googledrive.New(conn.ID, cfg), nil

	case "github":
		cfg, err := github.ParseConfig(conn)
		if err != nil {
			return nil, err
		}
		return github.New(ctx, conn.ID, cfg), nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, conn.Type)
	}
}
