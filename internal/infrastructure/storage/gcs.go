package storage

import (
	"context"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

// GCSBucket stores objects in a Google Cloud Storage bucket with public read access.
type GCSBucket struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSBucket returns a bucket whose Key only accepts objects under prefix.
// An empty prefix accepts any object in the bucket.
func NewGCSBucket(client *gcs.Client, bucket, prefix string) *GCSBucket {
	return &GCSBucket{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (b *GCSBucket) Name() string { return "gcs" }

func (b *GCSBucket) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := helpers.UploadBytes(ctx, b.client, b.bucket, key, contentType, data)
	return err
}

func (b *GCSBucket) Delete(ctx context.Context, key string) error {
	return helpers.DeleteObject(ctx, b.client, b.bucket, key)
}

func (b *GCSBucket) URL(key string) string { return helpers.PublicURL(b.bucket, key) }

func (b *GCSBucket) Key(url string) (string, bool) {
	key, ok := helpers.ObjectPathFromURL(b.bucket, url)
	if !ok || path.Clean(key) != key {
		return "", false
	}
	if b.prefix != "" && !strings.HasPrefix(key, b.prefix+"/") {
		return "", false
	}
	return key, true
}
