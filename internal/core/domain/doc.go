// Package domain defines the core business entities for Canopy.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentNode: One entry in a connected source's hierarchy
//   - Connection: A linked external account/source
//   - SyncJob: The status record for one connection's ingestion run
//   - RemoteDocument: A raw descriptor streamed by a connector
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
