package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/cache"
	"github.com/oksasatya/go-user-registry/internal/testutil"
)

func setup(t *testing.T) (*miniredis.Miniredis, *testutil.UserRepo, *cache.UserRepository) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, _ := test.NewNullLogger()
	inner := testutil.NewUserRepo()
	return s, inner, cache.NewUserRepository(inner, rdb, time.Minute, logger)
}

func seed(t *testing.T, repo *cache.UserRepository) *entity.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &entity.User{Name: "Ana", Email: "ana@x.com", Age: 30, ProfileImage: "https://img/a.jpg"})
	require.NoError(t, err)
	return u
}

func TestGetByIDReadsThrough(t *testing.T) {
	s, inner, repo := setup(t)
	ctx := context.Background()
	u := seed(t, repo)

	first, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, s.Exists("user:"+u.ID))
	s.CheckTTL(t, "user:"+u.ID, time.Minute)

	second, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.ProfileImage, second.ProfileImage)
	assert.Equal(t, 1, inner.CallCount("GetByID"), "second read must be served from redis")
}

func TestWritesUpdateCache(t *testing.T) {
	s, inner, repo := setup(t)
	ctx := context.Background()
	u := seed(t, repo)

	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	name := "Ana María"
	updated, prev, err := repo.Update(ctx, u.ID, entity.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, "Ana", prev.Name)
	assert.True(t, s.Exists("user:"+u.ID))

	fresh, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", fresh.Name)
	assert.Equal(t, 1, inner.CallCount("GetByID"), "update writes the new row through")

	_, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 2, inner.CallCount("GetByID"), "a tombstone is never served")
}

// racingRepo runs during once a read has loaded its row and before the row
// is handed back, like a concurrent write landing in that window.
type racingRepo struct {
	*testutil.UserRepo
	during func()
}

func (r *racingRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := r.UserRepo.GetByID(ctx, id)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return u, err
}

func setupRacing(t *testing.T) (*miniredis.Miniredis, *racingRepo, *cache.UserRepository) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger, _ := test.NewNullLogger()
	inner := &racingRepo{UserRepo: testutil.NewUserRepo()}
	return s, inner, cache.NewUserRepository(inner, rdb, time.Minute, logger)
}

func TestStaleReadCannotOverwriteUpdate(t *testing.T) {
	_, inner, repo := setupRacing(t)
	ctx := context.Background()
	u := seed(t, repo)

	newImage := "https://img/b.jpg"
	inner.during = func() {
		_, prev, err := repo.Update(ctx, u.ID, entity.UserPatch{ProfileImage: &newImage})
		require.NoError(t, err)
		assert.Equal(t, "https://img/a.jpg", prev.ProfileImage)
	}

	stale, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.jpg", stale.ProfileImage, "the racing read returns what it loaded")

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, newImage, got.ProfileImage)
	assert.Equal(t, 1, inner.CallCount("GetByID"), "served from the written-through entry")

	// The previous image of the next update is the stored row, not the stale read.
	third := "https://img/c.jpg"
	_, prev, err := repo.Update(ctx, u.ID, entity.UserPatch{ProfileImage: &third})
	require.NoError(t, err)
	assert.Equal(t, newImage, prev.ProfileImage)
}

func TestStaleReadCannotResurrectDeletedUser(t *testing.T) {
	s, inner, repo := setupRacing(t)
	ctx := context.Background()
	u := seed(t, repo)

	inner.during = func() {
		_, err := repo.Delete(ctx, u.ID)
		require.NoError(t, err)
	}
	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	s.FastForward(2 * time.Minute)
	assert.False(t, s.Exists("user:"+u.ID), "tombstones expire with the cache TTL")
}

func TestOlderVersionIsNotWritten(t *testing.T) {
	s, _, repo := setup(t)
	ctx := context.Background()
	u := seed(t, repo)

	name := "Ana María"
	_, _, err := repo.Update(ctx, u.ID, entity.UserPatch{Name: &name})
	require.NoError(t, err)
	before, err := s.Get("user:" + u.ID)
	require.NoError(t, err)

	// A no-op update returns the same version and leaves the entry alone.
	_, _, err = repo.Update(ctx, u.ID, entity.UserPatch{})
	require.NoError(t, err)
	after, err := s.Get("user:" + u.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRedisOutageFallsBackToRepository(t *testing.T) {
	s, _, repo := setup(t)
	ctx := context.Background()
	u := seed(t, repo)

	s.Close()

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	age := 31
	_, _, err = repo.Update(ctx, u.ID, entity.UserPatch{Age: &age})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
}

func TestNotFoundIsNotCached(t *testing.T) {
	s, _, repo := setup(t)
	_, err := repo.GetByID(context.Background(), "6f1c2a8e-3b4d-4c5e-9f60-7a8b9c0d1e2f")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, s.Keys())
}
