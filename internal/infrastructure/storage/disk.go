package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskBucket keeps objects under a local directory that the HTTP server
// exposes at urlPrefix (e.g. "/uploads" or "https://host/uploads").
type DiskBucket struct {
	dir       string
	urlPrefix string
}

func NewDiskBucket(dir, urlPrefix string) (*DiskBucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskBucket{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (b *DiskBucket) Name() string { return "local" }

func (b *DiskBucket) Put(ctx context.Context, key, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	// Write to a temp file first so readers never see a partial image.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (b *DiskBucket) Delete(_ context.Context, key string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (b *DiskBucket) URL(key string) string { return b.urlPrefix + "/" + key }

func (b *DiskBucket) Key(url string) (string, bool) {
	prefix := b.urlPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if _, err := b.path(key); err != nil {
		return "", false
	}
	return key, true
}

func (b *DiskBucket) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.dir, filepath.FromSlash(clean[1:])), nil
}
