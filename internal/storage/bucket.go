package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/klauern/botsync/internal/model"
)

var (
	// ErrNotConfigured is returned when credentials are incomplete.
	ErrNotConfigured = errors.New("R2 storage is not configured")

	// ErrBucketNotFound is returned by Preflight when the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket does not exist")

	// ErrNoMarker is returned by LastSync when the bucket was never synced.
	ErrNoMarker = errors.New("no sync marker in bucket")
)

// BucketOptions tunes how the S3 client reaches the bucket.
type BucketOptions struct {
	// Endpoint overrides <account>.r2.cloudflarestorage.com (host[:port]).
	Endpoint string

	// Insecure disables TLS, for local S3-compatible test servers.
	Insecure bool
}

// Bucket is a direct S3 API handle on the backup bucket.
type Bucket struct {
	client *minio.Client
	name   string
}

// NewBucket creates a client for the bucket named in creds.
func NewBucket(creds model.Credentials, opts BucketOptions) (*Bucket, error) {
	if !creds.Complete() {
		return nil, ErrNotConfigured
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = creds.Endpoint()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, ""),
		Secure: !opts.Insecure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &Bucket{client: client, name: creds.BucketName()}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Exists reports whether the bucket exists and the credentials can see it.
func (b *Bucket) Exists(ctx context.Context) (bool, error) {
	ok, err := b.client.BucketExists(ctx, b.name)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket %s: %w", b.name, err)
	}
	return ok, nil
}

// LastSync reads the sync marker object. It returns ErrNoMarker when the
// object does not exist.
func (b *Bucket) LastSync(ctx context.Context) (string, error) {
	obj, err := b.client.GetObject(ctx, b.name, model.MarkerFileName, minio.GetObjectOptions{})
	if err != nil {
		return "", translateError(err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", translateError(err)
	}

	ts, ok := model.ParseMarker(string(data))
	if !ok {
		return "", fmt.Errorf("malformed sync marker %q", ts)
	}
	return ts, nil
}

// BucketPreflight returns a Preflight that checks the bucket exists.
func BucketPreflight(opts BucketOptions) Preflight {
	return func(ctx context.Context, creds model.Credentials) error {
		bucket, err := NewBucket(creds, opts)
		if err != nil {
			return err
		}
		ok, err := bucket.Exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket.Name())
		}
		return nil
	}
}

func translateError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return ErrNoMarker
	case "NoSuchBucket":
		return ErrBucketNotFound
	default:
		return fmt.Errorf("failed to read sync marker: %w", err)
	}
}
