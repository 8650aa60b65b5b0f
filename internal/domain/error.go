package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflicting state")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotConfigured   = errors.New("integration not configured")
	ErrOperationFailed = errors.New("operation failed")

	// Payments and webhooks
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrDuplicateEvent   = errors.New("event already processed")
	ErrInactiveProduct  = errors.New("product is not active")

	// A/B testing
	ErrTestNotRunning = errors.New("ab test is not running")

	// Admin roles
	ErrLastSuperAdmin = errors.New("cannot remove the last super admin")

	// Storage plumbing
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
