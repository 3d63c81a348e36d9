package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSBucket stores objects in a public Google Cloud Storage bucket
type GCSBucket struct {
	srv    *storagev1.Service
	bucket string
}

// NewGCSBucket authenticates with a service account file when one is given,
// otherwise with application default credentials
func NewGCSBucket(ctx context.Context, bucket, credentialsFile string) (*GCSBucket, error) {
	opts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	srv, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	return &GCSBucket{srv: srv, bucket: bucket}, nil
}

// Put uploads a new object, failing if one already exists at objectPath
func (b *GCSBucket) Put(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	cleaned, err := cleanPath(objectPath)
	if err != nil {
		return err
	}

	obj := &storagev1.Object{
		Name:         cleaned,
		ContentType:  contentType,
		CacheControl: "public, max-age=3600",
	}
	_, err = b.srv.Objects.Insert(b.bucket, obj).
		Media(r).
		IfGenerationMatch(0).
		Context(ctx).
		Do()
	if err != nil {
		if isStatus(err, http.StatusPreconditionFailed) {
			return ErrExists
		}
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// PublicURL returns the public storage URL of the object
func (b *GCSBucket) PublicURL(objectPath string) string {
	return gcsPublicHost + "/" + b.bucket + "/" + escapePath(objectPath)
}

// Delete removes an object. Missing objects are not an error.
func (b *GCSBucket) Delete(ctx context.Context, objectPath string) error {
	cleaned, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	err = b.srv.Objects.Delete(b.bucket, cleaned).Context(ctx).Do()
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
