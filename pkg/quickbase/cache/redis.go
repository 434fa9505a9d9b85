// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"seedfast/qbase/pkg/quickbase"
)

// DefaultPrefix namespaces schema keys.
const DefaultPrefix = "qbase:schema:"

var _ quickbase.SchemaCache = (*Redis)(nil)

// Redis stores raw API_GetSchema documents so several processes share one
// copy per database.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings with a short timeout.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	addr := opts.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return client, nil
}

// NewRedis wraps an existing client. An empty prefix means DefaultPrefix.
func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(dbID string) string { return r.prefix + dbID }

func (r *Redis) Get(ctx context.Context, dbID string) (*quickbase.Schema, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(dbID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", r.key(dbID), err)
	}
	s, err := quickbase.ParseSchema(raw)
	if err != nil {
		// A corrupt entry is dropped and treated as a miss.
		_ = r.rdb.Del(ctx, r.key(dbID)).Err()
		return nil, false, nil
	}
	return s, true, nil
}

func (r *Redis) Set(ctx context.Context, dbID string, s *quickbase.Schema) error {
	if len(s.Raw) == 0 {
		return errors.New("schema has no raw document to store")
	}
	if err := r.rdb.SetEx(ctx, r.key(dbID), s.Raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(dbID), err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, dbID string) error {
	if err := r.rdb.Del(ctx, r.key(dbID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key(dbID), err)
	}
	return nil
}
