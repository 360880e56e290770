// Package blob is the storage collaborator behind media capture. The
// runtime only ever uploads; cache-control and retention are the bucket's
// business.
package blob

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("blob: storage unavailable")

// Store uploads a payload and returns its public URL.
type Store interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
