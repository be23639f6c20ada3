// Package artifact checks that pre-built deployment artifacts exist where a
// stack says they are. Artifacts are built elsewhere; nothing here builds or
// uploads them.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLocation is returned for a location no store handles.
var ErrUnsupportedLocation = errors.New("unsupported artifact location")

// Store reports whether an artifact exists at a location.
type Store interface {
	Exists(ctx context.Context, location string) (bool, error)
}

// Router dispatches s3:// locations to S3 and everything else to Local.
type Router struct {
	Local Store
	S3    Store
}

// Exists implements Store.
func (r *Router) Exists(ctx context.Context, location string) (bool, error) {
	if strings.HasPrefix(location, "s3://") {
		if r.S3 == nil {
			return false, fmt.Errorf("%w: %s (no S3 store configured)", ErrUnsupportedLocation, location)
		}
		return r.S3.Exists(ctx, location)
	}
	if r.Local == nil {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedLocation, location)
	}
	return r.Local.Exists(ctx, location)
}

// SplitS3 splits s3://bucket/key into bucket and key.
func SplitS3(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not an s3:// location", ErrUnsupportedLocation, location)
	}
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s needs a bucket and key", ErrUnsupportedLocation, location)
	}
	return bucket, key, nil
}
