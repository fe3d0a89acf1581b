package storage

import (
	"context"
	"io"
)

// StoredObject describes a logo after it has been written to the bucket.
// URL is the public address derived from the configured base URL; ETag is
// whatever checksum the backend reported.
type StoredObject struct {
	Key  string
	URL  string
	ETag string
}

// LogoStore keeps team logos in an object bucket. Put overwrites any object
// already stored under key. PublicURL is a pure path computation; it does not
// check that the object exists.
type LogoStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}
