// Package kvstore is the device-local key-value persistence protocol used
// by the local profile adapter and for auth session storage.
package kvstore

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kvstore: store is closed")

// Store holds string values under string keys. Get reports found=false for
// a missing key rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
