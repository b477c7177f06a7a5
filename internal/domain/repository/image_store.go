package repository

import (
	"context"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// ImageStore hosts profile images outside the database.
type ImageStore interface {
	// Upload normalizes and stores data. filename is only a hint for the
	// original format. Failures are apperror.Upload.
	Upload(ctx context.Context, data []byte, filename string) (*entity.StoredImage, error)
	// Delete removes an asset by id.
	Delete(ctx context.Context, assetID string) error
	// AssetID recovers the asset id from a URL produced by Upload.
	// It reports false for URLs this store did not issue.
	AssetID(url string) (string, bool)
}
