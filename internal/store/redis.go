package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/prospect-crm/internal/core"
)

// DefaultMappingKey is the Redis hash holding mapping configs.
const DefaultMappingKey = "crm:mapping-configs"

// RedisOptions holds Redis connection settings.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client and verifies it with a ping.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisMappings keeps every mapping config as one JSON field of a single
// hash, keyed by config name. HSET gives last-write-wins per name.
type RedisMappings struct {
	rdb *redis.Client
	key string
}

// NewRedisMappings uses key as the hash name, DefaultMappingKey when empty.
func NewRedisMappings(rdb *redis.Client, key string) *RedisMappings {
	if key == "" {
		key = DefaultMappingKey
	}
	return &RedisMappings{rdb: rdb, key: key}
}

func (s *RedisMappings) List(ctx context.Context) ([]core.MappingConfig, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}

	out := make([]core.MappingConfig, 0, len(fields))
	for name, raw := range fields {
		var cfg core.MappingConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("decode mapping config %q: %w", name, err)
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *RedisMappings) Save(ctx context.Context, cfg core.MappingConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode mapping config: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.key, cfg.Name, raw).Err(); err != nil {
		return fmt.Errorf("hset %s %q: %w", s.key, cfg.Name, err)
	}
	return nil
}

func (s *RedisMappings) FindByName(ctx context.Context, name string) (core.MappingConfig, error) {
	raw, err := s.rdb.HGet(ctx, s.key, name).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.MappingConfig{}, core.ErrNotFound
	}
	if err != nil {
		return core.MappingConfig{}, fmt.Errorf("hget %s %q: %w", s.key, name, err)
	}

	var cfg core.MappingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return core.MappingConfig{}, fmt.Errorf("decode mapping config %q: %w", name, err)
	}
	return cfg, nil
}
