package storage

import (
	"context"
	"io"
)

// Gateway is the object store behind file contents. Keys are bucket relative
// paths of the form {userId}/{folder path}/{name}.
type Gateway interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Remove(ctx context.Context, keys []string) error
	Move(ctx context.Context, oldKey string, newKey string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
