// Package source opens upload input from the local filesystem or a Cloud
// Storage bucket.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSScheme prefixes Cloud Storage locations.
const GCSScheme = "gs://"

// Source errors.
var (
	ErrNotFound        = errors.New("input not found")
	ErrInvalidLocation = errors.New("invalid input location")
)

// Options configures remote access.
type Options struct {
	// CredentialsFile authenticates Cloud Storage reads. Empty uses
	// application default credentials.
	CredentialsFile string
}

// Location is a parsed input location.
type Location struct {
	Raw    string
	Bucket string
	Object string
}

// IsRemote reports whether the location points into a bucket.
func (l Location) IsRemote() bool {
	return l.Bucket != ""
}

// ParseLocation splits gs://bucket/object URLs. Anything else is a local path.
func ParseLocation(raw string) (Location, error) {
	loc := Location{Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return loc, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}
	if !strings.HasPrefix(raw, GCSScheme) {
		return loc, nil
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(raw, GCSScheme), "/")
	if !ok || bucket == "" || object == "" {
		return loc, fmt.Errorf("%w: %q must be %sbucket/object", ErrInvalidLocation, raw, GCSScheme)
	}
	loc.Bucket = bucket
	loc.Object = object
	return loc, nil
}

// Open returns a reader for location. The caller must close it.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	if loc.IsRemote() {
		return openGCS(ctx, loc, opts)
	}
	return openLocal(loc.Raw)
}

func openLocal(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidLocation, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func openGCS(ctx context.Context, loc Location, opts Options) (io.ReadCloser, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	reader, err := client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc.Raw)
		}
		return nil, fmt.Errorf("open %s: %w", loc.Raw, err)
	}
	return &gcsReader{Reader: reader, client: client}, nil
}

// gcsReader closes the storage client together with the object reader.
type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	return errors.Join(r.Reader.Close(), r.client.Close())
}
