package repository

import (
	"context"
	"encoding/json"
	"errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "user:"

type cachedUserRepository struct {
	next  UserRepository
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedUserRepository puts a Redis read-through cache in front of next.
// Update evicts the cached entry; listings always go to next. Redis failures
// fall through to next.
func NewCachedUserRepository(next UserRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) UserRepository {
	return &cachedUserRepository{
		next:  next,
		redis: client,
		ttl:   ttl,
		log:   log,
	}
}

func (r *cachedUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.next.Create(ctx, user); err != nil {
		return err
	}
	r.store(ctx, user)
	return nil
}

func (r *cachedUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	data, err := r.redis.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err == nil {
		var user model.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		r.log.Warn("Discarding corrupt cached user", "id", id)
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("User cache lookup failed", "id", id, "error", err)
	}

	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *cachedUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	return r.next.FindAll(ctx, limit, offset)
}

func (r *cachedUserRepository) Count(ctx context.Context) (int64, error) {
	return r.next.Count(ctx)
}

func (r *cachedUserRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.next.Update(ctx, user); err != nil {
		return err
	}
	r.evict(ctx, user.ID)
	return nil
}

// evict drops the entry; a failed DEL leaves it to expire after ttl.
func (r *cachedUserRepository) evict(ctx context.Context, id string) {
	if err := r.redis.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		r.log.Warn("Failed to evict cached user", "id", id, "error", err)
	}
}

func (r *cachedUserRepository) store(ctx context.Context, user *model.User) {
	data, err := json.Marshal(user)
	if err != nil {
		r.log.Warn("Failed to marshal user for cache", "id", user.ID, "error", err)
		return
	}
	if err := r.redis.Set(ctx, cacheKeyPrefix+user.ID, data, r.ttl).Err(); err != nil {
		r.log.Warn("Failed to cache user", "id", user.ID, "error", err)
	}
}
