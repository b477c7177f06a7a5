// Package testutil holds in-memory doubles for the domain ports. They
// honor the same tagged-error contract as the real adapters.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// UserRepo is a map-backed repository.UserRepository with a unique email index.
type UserRepo struct {
	mu      sync.Mutex
	users   map[string]entity.User
	emails  map[string]string
	seq     int
	Calls   map[string]int
	FailAll error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]entity.User{}, emails: map[string]string{}, Calls: map[string]int{}}
}

func (r *UserRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *UserRepo) CallCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[op]
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Create"]++
	if r.FailAll != nil {
		return nil, r.FailAll
	}
	in := *u
	in.Normalize()
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if _, taken := r.emails[in.Email]; taken {
		return nil, apperror.New(apperror.DuplicateEmail, "El correo ya está registrado")
	}
	r.seq++
	in.ID = uuid.NewString()
	in.CreatedAt = time.Unix(int64(r.seq), 0).UTC()
	in.UpdatedAt = in.CreatedAt
	r.users[in.ID] = in
	r.emails[in.Email] = in.ID
	out := in
	return &out, nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["GetByID"]++
	if r.FailAll != nil {
		return nil, r.FailAll
	}
	u, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["List"]++
	if r.FailAll != nil {
		return nil, r.FailAll
	}
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepo) Update(_ context.Context, id string, patch entity.UserPatch) (*entity.User, *entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Update"]++
	if r.FailAll != nil {
		return nil, nil, r.FailAll
	}
	current, err := r.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	if patch.Empty() {
		out := current
		return &out, &current, nil
	}
	merged := patch.Apply(current)
	merged.Normalize()
	if err := merged.Validate(true); err != nil {
		return nil, nil, err
	}
	if owner, taken := r.emails[merged.Email]; taken && owner != id {
		return nil, nil, apperror.New(apperror.DuplicateEmail, "El correo ya está registrado")
	}
	delete(r.emails, current.Email)
	r.emails[merged.Email] = id
	merged.UpdatedAt = current.UpdatedAt.Add(time.Second)
	r.users[id] = merged
	out, prev := merged, current
	return &out, &prev, nil
}

func (r *UserRepo) Delete(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Delete"]++
	if r.FailAll != nil {
		return nil, r.FailAll
	}
	u, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	delete(r.users, id)
	delete(r.emails, u.Email)
	return &u, nil
}

func (r *UserRepo) lookup(id string) (entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return entity.User{}, apperror.New(apperror.InvalidID, "El ID proporcionado no es válido")
	}
	u, ok := r.users[id]
	if !ok {
		return entity.User{}, apperror.New(apperror.NotFound, "Usuario no encontrado con el ID proporcionado")
	}
	return u, nil
}

// ImageStore records uploads and deletions in memory.
type ImageStore struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Deleted   []string
	UploadErr error
	DeleteErr error
	uploads   int
}

func NewImageStore() *ImageStore { return &ImageStore{Objects: map[string][]byte{}} }

const imageHost = "https://images.test/"

func (s *ImageStore) Upload(_ context.Context, data []byte, _ string) (*entity.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	if len(data) == 0 {
		return nil, apperror.Wrap(apperror.Upload, "La imagen de perfil está vacía", errors.New("empty"))
	}
	id := fmt.Sprintf("avatars/%d.jpg", s.uploads)
	s.Objects[id] = data
	return &entity.StoredImage{ID: id, URL: imageHost + id}, nil
}

func (s *ImageStore) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, assetID)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Objects, assetID)
	return nil
}

func (s *ImageStore) AssetID(url string) (string, bool) {
	if !strings.HasPrefix(url, imageHost) {
		return "", false
	}
	return strings.TrimPrefix(url, imageHost), true
}

func (s *ImageStore) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *ImageStore) DeletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Deleted...)
}

// URL returns the public URL the fake would issue for id.
func URL(id string) string { return imageHost + id }
