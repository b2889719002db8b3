// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Streams a connection's document listing
//   - ConnectorFactory: Creates connectors from connection configuration
//   - TreeStore: Document tree persistence
//   - SyncJobStore: Sync job record persistence
//   - ConnectionStore: Connection configuration persistence
//   - SubscriptionEndpoint: Authoritative persistence of subscription changes
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
