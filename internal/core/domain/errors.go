package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a sync is already running for the
	// connection, or that the tree is not yet writable because the
	// running sync has not delivered any documents.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrSubscriptionRejected indicates the persistence endpoint refused a
	// subscription change. The optimistic local change has been rolled back.
	ErrSubscriptionRejected = errors.New("subscription change rejected")

	// Authentication Errors.

	// ErrAuthRequired indicates the connector requires authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Connector Errors.

	// ErrConnectorValidation indicates connector validation failed.
	// The connection is misconfigured or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrWatchUnsupported indicates the connector cannot push change
	// events for its source.
	ErrWatchUnsupported = errors.New("watch unsupported")

	// ErrNotImplemented indicates the connector does not support the operation.
	ErrNotImplemented = errors.New("not implemented")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
