// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/constants"
)

// StateStore persists pending authorize states between the redirect to the
// provider and the callback.
type StateStore interface {
	Set(ctx context.Context, state, provider string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}

// RedisStateStore implements [StateStore] on Redis. The TTL makes abandoned
// login attempts clean up on their own.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a new Redis-backed [StateStore].
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

/*
Set stores a pending state token with the provider it belongs to.

Parameters:
  - context: context.Context
  - state: string
  - provider: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (store *RedisStateStore) Set(context context.Context, state, provider string, ttl time.Duration) error {
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOAuthState, state)

	if err := store.client.Set(context, key, provider, ttl).Err(); err != nil {
		return fmt.Errorf("redis_oauth_state_set_failed: %w", err)
	}

	return nil
}

/*
Consume validates a state token and deletes it in the same call.

Description: Single-use semantics; a replayed state fails the same way as a
forged or expired one.

Parameters:
  - context: context.Context
  - state: string

Returns:
  - string: The provider the state was minted for
  - error: apperr.Unauthorized for unknown/expired states, connectivity errors otherwise
*/
func (store *RedisStateStore) Consume(context context.Context, state string) (string, error) {
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOAuthState, state)

	provider, err := store.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.Unauthorized("State token is invalid or expired")
		}
		return "", fmt.Errorf("redis_oauth_state_consume_failed: %w", err)
	}

	return provider, nil
}
