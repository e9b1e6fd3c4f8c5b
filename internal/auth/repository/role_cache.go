package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
)

const roleKeyPrefix = "role:" // Cached resolution per user: role:{uid}

// RoleCache keeps recent role resolutions in Redis so bearer-token API calls
// do not hit the document store on every request.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	return &RoleCache{client: client, ttl: ttl}
}

// Get returns ok=false on a miss.
func (r *RoleCache) Get(ctx context.Context, uid string) (authdomain.Resolution, bool, error) {
	data, err := r.client.Get(ctx, r.key(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return authdomain.Resolution{}, false, nil
	}
	if err != nil {
		return authdomain.Resolution{}, false, fmt.Errorf("get cached role: %w", err)
	}

	var res authdomain.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return authdomain.Resolution{}, false, fmt.Errorf("decode cached role: %w", err)
	}
	return res, true, nil
}

func (r *RoleCache) Set(ctx context.Context, res authdomain.Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(res.UID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

func (r *RoleCache) Invalidate(ctx context.Context, uid string) error {
	if err := r.client.Del(ctx, r.key(uid)).Err(); err != nil {
		return fmt.Errorf("invalidate role: %w", err)
	}
	return nil
}

func (r *RoleCache) key(uid string) string {
	return roleKeyPrefix + uid
}
