// Package storage moves statement and ledger bytes to and from Google Cloud
// Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const scheme = "gs://"

// Location is a parsed gs://bucket/object URI.
type Location struct {
	Bucket string
	Object string
}

func (l Location) String() string { return scheme + l.Bucket + "/" + l.Object }

// Base returns the final path element of the object name.
func (l Location) Base() string { return path.Base(l.Object) }

// IsURI reports whether s uses the gs:// scheme.
func IsURI(s string) bool { return strings.HasPrefix(s, scheme) }

// ParseURI splits gs://bucket/path/to/object.
func ParseURI(uri string) (Location, error) {
	if !IsURI(uri) {
		return Location{}, fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.HasSuffix(parts[1], "/") {
		return Location{}, fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return Location{Bucket: parts[0], Object: parts[1]}, nil
}

// Client reads and writes whole objects.
type Client interface {
	Download(ctx context.Context, loc Location) ([]byte, error)
	Upload(ctx context.Context, loc Location, r io.Reader, contentType string) error
}

// GCS is a Client on cloud.google.com/go/storage. It uses Application
// Default Credentials.
type GCS struct {
	client  *storage.Client
	timeout time.Duration
}

// NewGCS creates a storage client. Call Close when done.
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, timeout: 2 * time.Minute}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error { return g.client.Close() }

// Download reads the whole object.
func (g *GCS) Download(ctx context.Context, loc Location) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	r, err := g.client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s: %w", loc, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", loc, err)
	}
	return data, nil
}

// Upload writes r to the object, replacing any existing content.
func (g *GCS) Upload(ctx context.Context, loc Location, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	w := g.client.Bucket(loc.Bucket).Object(loc.Object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer %s: %w", loc, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", loc, err)
	}
	return nil
}
