package storage

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
)

type StreamWriter interface {
	io.Writer
	io.Closer
}

// ErrDoesNotExist is returned by Read on every backend when the key is missing.
var ErrDoesNotExist = errors.New("does not exist")

// System defines the operations for interacting with the storage backend.
type System interface {
	// Write stores data under key, replacing whatever was there.
	Write(ctx context.Context, key string, data []byte) error

	// BeginStream opens a writer that appends to key. Data is only guaranteed to be
	// readable once the writer is closed.
	BeginStream(ctx context.Context, key string) (StreamWriter, error)

	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetKeysWithPrefix returns the matching keys in lexical order.
	GetKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}
