package tui

import "errors"

// ErrMissingConnectionService is returned when the connection service is not provided.
var ErrMissingConnectionService = errors.New("tui: connection service is required")

// ErrMissingSubscriptionService is returned when the subscription service is not provided.
var ErrMissingSubscriptionService = errors.New("tui: subscription service is required")

// ErrMissingSyncOrchestrator is returned when the sync orchestrator is not provided.
var ErrMissingSyncOrchestrator = errors.New("tui: sync orchestrator is required")

// ErrMissingNavigator is returned when the navigator is not provided.
var ErrMissingNavigator = errors.New("tui: navigator is required")
