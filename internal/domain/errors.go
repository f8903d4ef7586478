package domain

import "errors"

var (
	// ErrBackendNotConfigured is returned by remote-only operations in local mode.
	ErrBackendNotConfigured = errors.New("backend not configured")
	// ErrUnauthenticated is returned when a remote mutation has no signed-in identity.
	ErrUnauthenticated = errors.New("not authenticated")
)

// StoreMode names the adapter the store dispatches to.
type StoreMode string

const (
	ModeLocal  StoreMode = "local"
	ModeRemote StoreMode = "remote"
)
