// Package store provides the durable key-value contract used by the
// per-circuit cache, with memory, SQLite and Redis backends.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by a backend used after Close.
var ErrClosed = errors.New("store is closed")

// KV is a string key-value store. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	MultiRemove(ctx context.Context, keys []string) error
	GetAllKeys(ctx context.Context) ([]string, error)
	Close() error
}
