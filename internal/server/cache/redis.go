// Package cache keeps short lived copies of user records in Redis so the
// authentication middleware does not hit PostgreSQL on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipeapi/internal/logging"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "recipeapi:user:"

// cachedUser is the stored form. The password hash never leaves PostgreSQL.
type cachedUser struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration, logger logging.Logger) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl, logger: logger.With("module", "cache")}
}

// Connect opens a client for addr and checks it with PING.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func key(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

func (c *RedisUserCache) Get(ctx context.Context, id int64) (*models.User, bool) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "user cache get failed", "user_id", id, "error", err)
		}
		return nil, false
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		c.logger.Warn(ctx, "user cache entry is corrupt", "user_id", id, "error", err)
		return nil, false
	}
	return &models.User{
		ID:          cu.ID,
		Email:       cu.Email,
		Name:        cu.Name,
		IsActive:    cu.IsActive,
		IsStaff:     cu.IsStaff,
		IsSuperuser: cu.IsSuperuser,
		CreatedAt:   cu.CreatedAt,
	}, true
}

func (c *RedisUserCache) Set(ctx context.Context, user *models.User) {
	data, err := json.Marshal(cachedUser{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	})
	if err != nil {
		c.logger.Warn(ctx, "user cache encode failed", "user_id", user.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(user.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "user cache set failed", "user_id", user.ID, "error", err)
	}
}

func (c *RedisUserCache) Delete(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn(ctx, "user cache delete failed", "user_id", id, "error", err)
	}
}
