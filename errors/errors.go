package errors

import "errors"

// Errors the CLI explains to the user.
var (
	// ErrMissingCredentials indicates a required token or key is not configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidConfig indicates a configuration value cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedDocument indicates an input document the loaders cannot read.
	ErrUnsupportedDocument = errors.New("unsupported document")

	// ErrPublishFailed indicates the result could not be handed off.
	ErrPublishFailed = errors.New("publish failed")

	// ErrConnectionFailed indicates a remote service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotAuthenticated indicates a remote service rejected the credentials.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates the credentials lack access.
	ErrPermissionDenied = errors.New("permission denied")
)
