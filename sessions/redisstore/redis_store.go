// Package redisstore persists session keys as Redis strings under a prefix.
package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
)

const DefaultPrefix = "rafiq:session:"

var _ sessions.Storage = (*Store)(nil)

type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New wraps an existing client. An empty prefix uses DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrStorageKeyNotFound
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "[redisstore Get] %s", key)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return apperrors.Wrapf(err, "[redisstore Set] %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return apperrors.Wrapf(err, "[redisstore Delete] %s", key)
	}
	return nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorageUnavailable, "[redisstore Ping] %v", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.redis.Close()
}
