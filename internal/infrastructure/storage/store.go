// Package storage implements repository.ImageStore on top of an object
// bucket (Google Cloud Storage or local disk).
package storage

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

// Bucket is a flat key/value object store that can publish URLs.
type Bucket interface {
	Name() string
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Key(url string) (string, bool)
}

type Options struct {
	Prefix        string
	UploadTimeout time.Duration
	Normalizer    Normalizer
}

// Store normalizes images and writes them to a Bucket under
// <prefix>/<uuid>.jpg. The key doubles as the asset id.
type Store struct {
	bucket  Bucket
	opts    Options
	logger  logrus.FieldLogger
	metrics *storeMetrics
}

func NewStore(bucket Bucket, opts Options, logger logrus.FieldLogger) *Store {
	if opts.Normalizer == (Normalizer{}) {
		opts.Normalizer = DefaultNormalizer()
	}
	return &Store{
		bucket:  bucket,
		opts:    opts,
		logger:  logger.WithField("image_store", bucket.Name()),
		metrics: metricsFor(bucket.Name()),
	}
}

func (s *Store) Upload(ctx context.Context, data []byte, filename string) (*entity.StoredImage, error) {
	normalized, err := s.opts.Normalizer.Normalize(data)
	if err != nil {
		s.metrics.uploadFailed.Inc()
		s.logger.WithError(err).WithFields(logrus.Fields{"filename": filename, "bytes": len(data)}).Info("rejected image")
		return nil, apperror.Wrap(apperror.Upload, rejectMessage(err), err)
	}

	key := path.Join(s.opts.Prefix, uuid.NewString()+".jpg")
	if s.opts.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.UploadTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.bucket.Put(ctx, key, normalizedContentType, normalized); err != nil {
		s.metrics.uploadFailed.Inc()
		s.logger.WithError(err).WithField("key", key).Error("image upload failed")
		return nil, apperror.Wrap(apperror.Internal, "No se pudo guardar la imagen de perfil", err)
	}
	s.metrics.uploadOK.Inc()
	s.metrics.uploadBytes.Observe(float64(len(normalized)))
	s.metrics.uploadSeconds.Observe(time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{"key": key, "bytes": len(normalized)}).Debug("image stored")
	return &entity.StoredImage{ID: key, URL: s.bucket.URL(key)}, nil
}

func (s *Store) Delete(ctx context.Context, assetID string) error {
	if err := s.bucket.Delete(ctx, assetID); err != nil {
		s.metrics.deleteFailed.Inc()
		return err
	}
	s.metrics.deleteOK.Inc()
	return nil
}

func (s *Store) AssetID(url string) (string, bool) {
	return s.bucket.Key(url)
}

func rejectMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyImage):
		return "La imagen de perfil está vacía"
	case errors.Is(err, ErrImageTooLarge):
		return "La imagen de perfil supera el tamaño permitido"
	case errors.Is(err, ErrTooManyPixels):
		return "La imagen de perfil supera las dimensiones permitidas"
	default:
		return "El archivo no es una imagen válida"
	}
}

var _ repository.ImageStore = (*Store)(nil)
