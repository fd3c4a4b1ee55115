package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// ErrConcurrentUpdate is returned when another writer touched the set mid-update.
var ErrConcurrentUpdate = errors.New("identifier set changed during update")

// RedisStore keeps one identifier set as a Redis SET.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

var _ ports.IDSetStore = (*RedisStore)(nil)

// NewRedisStore binds the store to key on client.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load returns all members of the set.
func (r *RedisStore) Load(ctx context.Context) (domain.IDSet, error) {
	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", r.key, err)
	}
	return domain.NewIDSet(members...), nil
}

// Update watches the key and rewrites the whole set in one MULTI/EXEC.
// A concurrent writer aborts the transaction; there is no retry.
func (r *RedisStore) Update(ctx context.Context, fn func(ids domain.IDSet) error) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		members, err := tx.SMembers(ctx, r.key).Result()
		if err != nil {
			return fmt.Errorf("smembers %s: %w", r.key, err)
		}

		ids := domain.NewIDSet(members...)
		if err := fn(ids); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.key)
			if ids.Len() > 0 {
				values := make([]any, 0, ids.Len())
				for _, id := range ids.Sorted() {
					values = append(values, id)
				}
				pipe.SAdd(ctx, r.key, values...)
			}
			return nil
		})
		return err
	}, r.key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentUpdate
	}
	return err
}

// Reset deletes the key.
func (r *RedisStore) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", r.key, err)
	}
	return nil
}
