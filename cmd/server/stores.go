package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/prospect-crm/internal/config"
	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/JonMunkholm/prospect-crm/internal/metrics"
	"github.com/JonMunkholm/prospect-crm/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// poolStatsInterval is how often connection pool gauges are refreshed.
const poolStatsInterval = 15 * time.Second

// stores holds the backends selected by configuration and what must be
// closed with them.
type stores struct {
	prospects core.ProspectStore
	mappings  core.MappingStore

	pool      *pgxpool.Pool
	redis     *redis.Client
	collector *metrics.PoolStatsCollector
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*stores, error) {
	s := &stores{}

	if cfg.Store.UsesPostgres() {
		pool, err := store.Connect(ctx, store.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		s.pool = pool
		if err := store.Migrate(ctx, pool); err != nil {
			s.Close()
			return nil, err
		}
		s.collector = m.NewPoolStatsCollector(pool)
		s.collector.Start(poolStatsInterval)
		slog.Info("connected to database", "max_conns", cfg.Database.MaxConns)
	}

	switch cfg.Store.Prospects {
	case config.DriverPostgres:
		s.prospects = store.NewPostgresProspects(s.pool)
	case config.DriverMemory:
		s.prospects = store.NewMemoryProspects()
		slog.Warn("prospects are kept in memory and lost on restart")
	default:
		s.Close()
		return nil, fmt.Errorf("unknown prospect store %q", cfg.Store.Prospects)
	}

	switch cfg.Store.Mappings {
	case config.DriverPostgres:
		s.mappings = store.NewPostgresMappings(s.pool)
	case config.DriverRedis:
		rdb, err := store.NewRedisClient(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = rdb
		s.mappings = store.NewRedisMappings(rdb, cfg.Store.MappingKey)
		slog.Info("connected to redis", "addr", cfg.Redis.Addr, "key", cfg.Store.MappingKey)
	case config.DriverMemory:
		s.mappings = store.NewMemoryMappings()
	default:
		s.Close()
		return nil, fmt.Errorf("unknown mapping store %q", cfg.Store.Mappings)
	}

	return s, nil
}

// Ping checks every network backend in use.
func (s *stores) Ping(ctx context.Context) error {
	var errs []error
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *stores) Close() {
	if s.collector != nil {
		s.collector.Stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
