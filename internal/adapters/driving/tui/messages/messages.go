// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewConnections is the connection list view.
	ViewConnections ViewType = iota
	// ViewBrowser is the document tree browser view.
	ViewBrowser
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewConnections:
		return "connections"
	case ViewBrowser:
		return "browser"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ConnectionsLoaded carries the list of connections from the service.
type ConnectionsLoaded struct {
	Connections []domain.Connection
	Err         error
}

// ConnectionSelected signals a connection was chosen for browsing.
type ConnectionSelected struct {
	Connection domain.Connection
}

// ConnectionRemoved signals a connection was disconnected.
type ConnectionRemoved struct {
	ID  string
	Err error
}

// TreeLoaded carries one level (or one search result set) of a
// connection's document tree.
type TreeLoaded struct {
	ConnectionID string
	Folders      []domain.DocumentNode
	Files        []domain.DocumentNode
	Breadcrumbs  []domain.DocumentNode
	Searching    bool
	Err          error
}

// SubscriptionToggled signals a subscription toggle finished.
type SubscriptionToggled struct {
	NodeID        string
	AffectedCount int
	IsSubscribed  bool
	Err           error
}

// SyncProgressed carries a status update from a running sync.
type SyncProgressed struct {
	ConnectionID      string
	Running           bool
	DocumentsReceived int
	IsTruncated       bool
	SyncError         string
	State             domain.SyncJobStatus
}

// SyncFinished signals the sync run returned.
type SyncFinished struct {
	ConnectionID string
	Err          error
}

// RemoteWatchAttached carries a source change-event subscription. Events
// is nil when the connector does not support watching.
type RemoteWatchAttached struct {
	ConnectionID string
	Events       <-chan struct{}
	Stop         func()
	Err          error
}

// RemoteChanged signals the connection's source changed since the last sync.
type RemoteChanged struct {
	ConnectionID string
}

// SyncStatusLoaded carries the stored job state for a connection.
type SyncStatusLoaded struct {
	ConnectionID      string
	State             domain.SyncJobStatus
	DocumentsReceived int
	IsTruncated       bool
	SyncError         string
	SyncStartedAt     time.Time
	Err               error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
