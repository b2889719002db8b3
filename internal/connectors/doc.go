// Package connectors provides implementations of the Connector interface
// for various document sources. Each connector knows how to list the
// hierarchy of a specific source type (filesystem, Google Drive, GitHub).
//
// The Factory builds connectors from connection configuration.
package connectors
