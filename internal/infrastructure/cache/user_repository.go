// Package cache adds a Redis read-through layer in front of a
// repository.UserRepository.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

const keyPrefix = "user:"

// tombstoneVersion outranks every row version; it is the largest integer
// Lua numbers hold exactly.
const tombstoneVersion int64 = 1<<53 - 1

func userKey(id string) string { return keyPrefix + id }

// entry is the cached value. V orders entries: a write never replaces an
// entry with an equal or higher V.
type entry struct {
	V       int64        `json:"v"`
	User    *entity.User `json:"user,omitempty"`
	Deleted bool         `json:"deleted,omitempty"`
}

func version(u *entity.User) int64 { return u.UpdatedAt.UnixMicro() }

// setIfNewerScript stores ARGV[1] with a PX of ARGV[3] unless the current
// entry's version is >= ARGV[2].
var setIfNewerScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == "table" and tonumber(doc.v) and tonumber(doc.v) >= tonumber(ARGV[2]) then
    return 0
  end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// UserRepository caches GetByID results. Writes go to the wrapped
// repository first; updates then write the new row through and deletes
// leave a tombstone, so a read that raced the write cannot put an older
// row back. Redis failures are logged and otherwise ignored.
type UserRepository struct {
	next   repository.UserRepository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewUserRepository(next repository.UserRepository, rdb redis.Cmdable, ttl time.Duration, logger logrus.FieldLogger) *UserRepository {
	return &UserRepository{next: next, rdb: rdb, ttl: ttl, logger: logger.WithField("component", "user_cache")}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	return r.next.Create(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var cached entry
	hit, err := helpers.RedisGetJSON(ctx, r.rdb, userKey(id), &cached)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", id).Warn("cache read failed")
	}
	if hit && cached.User != nil && !cached.Deleted {
		return cached.User, nil
	}

	u, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, u)
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	return r.next.List(ctx)
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, *entity.User, error) {
	u, prev, err := r.next.Update(ctx, id, patch)
	if err != nil {
		// The outcome of an internal failure is unknown.
		if apperror.KindOf(err) == apperror.Internal {
			r.invalidate(ctx, id)
		}
		return nil, nil, err
	}
	r.store(ctx, u)
	return u, prev, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (*entity.User, error) {
	u, err := r.next.Delete(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.Internal {
			r.invalidate(ctx, id)
		}
		return nil, err
	}
	if err := helpers.RedisSetJSON(ctx, r.rdb, userKey(id), entry{V: tombstoneVersion, Deleted: true}, r.ttl); err != nil {
		r.logger.WithError(err).WithField("user_id", id).Warn("cache tombstone failed")
		r.invalidate(ctx, id)
	}
	return u, nil
}

// store writes u unless the cache already holds the same or a newer version.
func (r *UserRepository) store(ctx context.Context, u *entity.User) {
	log := r.logger.WithField("user_id", u.ID)
	b, err := json.Marshal(entry{V: version(u), User: u})
	if err != nil {
		log.WithError(err).Warn("cache encode failed")
		return
	}
	ttl := strconv.FormatInt(r.ttl.Milliseconds(), 10)
	stored, err := setIfNewerScript.Run(ctx, r.rdb, []string{userKey(u.ID)}, b, version(u), ttl).Int()
	if err != nil {
		log.WithError(err).Warn("cache write failed")
		r.invalidate(ctx, u.ID)
		return
	}
	if stored == 0 {
		log.Debug("cache holds a newer entry, skipped write")
	}
}

func (r *UserRepository) invalidate(ctx context.Context, id string) {
	if err := helpers.RedisDel(ctx, r.rdb, userKey(id)); err != nil {
		r.logger.WithError(err).WithField("user_id", id).Warn("cache invalidation failed")
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
