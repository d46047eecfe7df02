package repository

import (
	"context"
	"io"
)

// BlobStore keeps uploaded attachments (resumes, job descriptions).
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
