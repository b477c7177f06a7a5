package storage

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

// FromConfig builds the Store selected by IMAGE_STORE. The returned func
// releases the backend's client.
func FromConfig(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Store, func(), error) {
	opts := Options{
		Prefix:        cfg.GCSObjectPrefix,
		UploadTimeout: cfg.ImageUploadTimeout,
		Normalizer: Normalizer{
			MaxBytes:  cfg.ImageMaxBytes,
			MaxWidth:  cfg.ImageMaxWidth,
			MaxHeight: cfg.ImageMaxHeight,
			MaxPixels: cfg.ImageMaxPixels,
			Quality:   cfg.ImageJPEGQuality,
		},
	}

	if cfg.ImageStore == config.ImageStoreGCS {
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, nil, err
		}
		return NewStore(NewGCSBucket(client, cfg.GCSBucket, cfg.GCSObjectPrefix), opts, logger), func() { _ = client.Close() }, nil
	}

	// Local files sit directly under UPLOADS_DIR and are served at /uploads.
	bucket, err := NewDiskBucket(cfg.UploadsDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		return nil, nil, err
	}
	opts.Prefix = ""
	return NewStore(bucket, opts, logger), func() {}, nil
}
