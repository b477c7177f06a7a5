package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	repo "github.com/oksasatya/go-user-registry/internal/domain/repository"
)

// cleanupTimeout bounds best-effort image deletions, which run detached
// from the request context.
const cleanupTimeout = 15 * time.Second

// Options are the compensating-action policies. Both default to off.
type Options struct {
	// CleanupOrphanedUploads deletes a freshly uploaded image when the
	// user write that should reference it fails.
	CleanupOrphanedUploads bool
	// DeleteReplacedImages deletes the previous image after an update
	// successfully swaps in a new one.
	DeleteReplacedImages bool
}

type Service struct {
	Repo    repo.UserRepository
	Images  repo.ImageStore
	Logger  logrus.FieldLogger
	Options Options
}

func NewService(users repo.UserRepository, images repo.ImageStore, logger logrus.FieldLogger, opts Options) *Service {
	return &Service{
		Repo:    users,
		Images:  images,
		Logger:  logger,
		Options: opts,
	}
}

// ImageFile is an uploaded file fully buffered in memory.
type ImageFile struct {
	Filename string
	Data     []byte
}

type RegisterInput struct {
	Name  string
	Email string
	Age   int
	Image *ImageFile
}

// Register runs Received -> ImageUploaded -> Persisted. Nothing is
// uploaded unless the image is present and the fields are valid.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if in.Image == nil || len(in.Image.Data) == 0 {
		return nil, apperror.New(apperror.MissingImage, "Debes subir una imagen de perfil")
	}

	u := entity.User{Name: in.Name, Email: in.Email, Age: in.Age}
	u.Normalize()
	if err := u.Validate(false); err != nil {
		return nil, err
	}

	img, err := s.upload(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	u.ProfileImage = img.URL

	created, err := s.Repo.Create(ctx, &u)
	if err != nil {
		log := s.Logger.WithError(err).WithFields(logrus.Fields{"email": u.Email, "asset_id": img.ID})
		if s.Options.CleanupOrphanedUploads {
			log.Info("user create failed, removing uploaded image")
			s.discardImage(ctx, img.ID)
		} else {
			log.Warn("user create failed, uploaded image left orphaned")
		}
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{"user_id": created.ID, "asset_id": img.ID}).Info("user registered")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

type UpdateInput struct {
	Fields entity.UserPatch
	Image  *ImageFile
}

// Update applies a partial update, swapping the profile image when a
// new one is attached. Without an image the stored URL is untouched.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.User, error) {
	// Resolve the record before uploading so unknown or malformed ids
	// never cost an upload. The row itself may be stale; the image to
	// replace comes from Repo.Update.
	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	patch := in.Fields
	patch.ProfileImage = nil
	var img *entity.StoredImage
	if in.Image != nil && len(in.Image.Data) > 0 {
		var err error
		img, err = s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.ProfileImage = &img.URL
	}

	updated, previous, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		if img != nil {
			log := s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": id, "asset_id": img.ID})
			if s.Options.CleanupOrphanedUploads {
				log.Info("user update failed, removing uploaded image")
				s.discardImage(ctx, img.ID)
			} else {
				log.Warn("user update failed, uploaded image left orphaned")
			}
		}
		return nil, err
	}

	if img != nil && previous.ProfileImage != "" && previous.ProfileImage != img.URL {
		if s.Options.DeleteReplacedImages {
			s.discardImageURL(ctx, previous.ProfileImage)
		} else {
			s.Logger.WithFields(logrus.Fields{"user_id": id, "previous_image": previous.ProfileImage}).Debug("previous image kept")
		}
	}

	s.Logger.WithField("user_id", id).Info("user updated")
	return updated, nil
}

// Delete removes the user and then, best effort, its stored image.
// Image cleanup failures never fail the deletion.
func (s *Service) Delete(ctx context.Context, id string) (*entity.User, error) {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.discardImageURL(ctx, deleted.ProfileImage)
	s.Logger.WithField("user_id", id).Info("user deleted")
	return deleted, nil
}

// upload keeps the store's classification: rejected image data is Upload,
// anything the store did not tag is an Internal fault.
func (s *Service) upload(ctx context.Context, f *ImageFile) (*entity.StoredImage, error) {
	img, err := s.Images.Upload(ctx, f.Data, f.Filename)
	if err != nil {
		var ae *apperror.Error
		if !errors.As(err, &ae) {
			err = apperror.Wrap(apperror.Internal, "No se pudo guardar la imagen de perfil", err)
		}
		return nil, err
	}
	return img, nil
}

func (s *Service) discardImageURL(ctx context.Context, url string) {
	assetID, ok := s.Images.AssetID(url)
	if !ok {
		if url != "" {
			s.Logger.WithField("image_url", url).Debug("image not owned by store, skipping delete")
		}
		return
	}
	s.discardImage(ctx, assetID)
}

func (s *Service) discardImage(ctx context.Context, assetID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.Images.Delete(ctx, assetID); err != nil {
		s.Logger.WithError(err).WithField("asset_id", assetID).Warn("image delete failed")
		return
	}
	s.Logger.WithField("asset_id", assetID).Debug("image deleted")
}
