package repository

import (
	"context"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// UserRepository defines the interface for user persistence.
// Implementations return *apperror.Error values for NotFound, InvalidID,
// Validation and DuplicateEmail. Update returns the stored row and the
// row it replaced, read under the same lock as the write.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, id string, patch entity.UserPatch) (updated, previous *entity.User, err error)
	Delete(ctx context.Context, id string) (*entity.User, error)
}
