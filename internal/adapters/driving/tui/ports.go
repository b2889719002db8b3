// Package tui provides an interactive terminal user interface for canopy.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Connections manages linked external accounts.
	Connections driving.ConnectionService

	// Subscriptions toggles subscription flags on tree nodes.
	Subscriptions driving.SubscriptionService

	// Sync orchestrates document tree ingestion.
	Sync driving.SyncOrchestrator

	// Navigator projects document trees into browsable views.
	Navigator driving.Navigator
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	connections driving.ConnectionService,
	subscriptions driving.SubscriptionService,
	sync driving.SyncOrchestrator,
	navigator driving.Navigator,
) *Ports {
	return &Ports{
		Connections:   connections,
		Subscriptions: subscriptions,
		Sync:          sync,
		Navigator:     navigator,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Connections == nil {
		return ErrMissingConnectionService
	}
	if p.Subscriptions == nil {
		return ErrMissingSubscriptionService
	}
	if p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	if p.Navigator == nil {
		return ErrMissingNavigator
	}
	return nil
}
