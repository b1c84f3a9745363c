// Package blobx stores raw uploaded artifacts in an object store and hands
// back stable s3:// URIs that job payloads can carry instead of the bytes.
package blobx

import (
	"context"
	"fmt"
	"strings"

	"github.com/tracefield/astro-reason/pkg/errx"
)

var blobErrors = errx.NewRegistry("BLOB")

var (
	ErrPutFailed  = blobErrors.Register("PUT_FAILED", errx.TypeExternal, 502, "Failed to store object")
	ErrGetFailed  = blobErrors.Register("GET_FAILED", errx.TypeExternal, 502, "Failed to read object")
	ErrNotFound   = blobErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Object not found")
	ErrBadURI     = blobErrors.Register("BAD_URI", errx.TypeValidation, 400, "Malformed object URI")
	ErrBucketMiss = blobErrors.Register("BUCKET_MISMATCH", errx.TypeValidation, 400, "URI bucket does not match store bucket")
)

// Store reads and writes immutable blobs addressed by key.
type Store interface {
	// PutBytes writes data under key and returns the object's s3:// URI.
	PutBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Read returns the full contents of the object at the given s3:// URI.
	Read(ctx context.Context, uri string) ([]byte, error)
}

// ParseURI splits an s3://bucket/key URI into its parts.
func ParseURI(uri string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", blobErrors.New(ErrBadURI).WithDetail("uri", uri)
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", blobErrors.New(ErrBadURI).WithDetail("uri", uri)
	}
	return bucket, key, nil
}

// FormatURI builds the canonical s3://bucket/key URI.
func FormatURI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
