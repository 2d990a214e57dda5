package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a key has no object.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage holds uploaded files (flags, photos, consent forms and
// stashed bulk-registration archives) in a single bucket.
type ObjectStorage interface {
	// PutObject stores size bytes read from r under objectKey.
	PutObject(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error

	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ObjectStat, error)

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, objectKey string) (ObjectStat, error)

	RemoveObject(ctx context.Context, objectKey string) error
}

// ObjectStat contains object metadata.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}

// ReadAll fetches a whole object into memory.
func ReadAll(ctx context.Context, s ObjectStorage, objectKey string) ([]byte, ObjectStat, error) {
	r, stat, err := s.GetObject(ctx, objectKey)
	if err != nil {
		return nil, ObjectStat{}, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ObjectStat{}, err
	}
	return data, stat, nil
}
