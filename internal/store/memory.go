// Package store implements the prospect and mapping-config stores used by
// core.Service: in-memory, PostgreSQL (pgx) and Redis (go-redis).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/prospect-crm/internal/core"
)

// MemoryProspects is a process-local prospect collection. AddBatch is
// all-or-nothing under a single lock.
type MemoryProspects struct {
	mu    sync.RWMutex
	rows  map[string]core.Prospect
	order []string // insertion order
}

// NewMemoryProspects returns an empty store.
func NewMemoryProspects() *MemoryProspects {
	return &MemoryProspects{rows: make(map[string]core.Prospect)}
}

func (s *MemoryProspects) GetAll(_ context.Context) ([]core.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Prospect, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *MemoryProspects) AddBatch(ctx context.Context, ps []core.Prospect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		if _, ok := s.rows[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.rows[p.ID] = p
	}
	return nil
}

func (s *MemoryProspects) UpdateOne(_ context.Context, p core.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[p.ID]; !ok {
		return core.ErrNotFound
	}
	s.rows[p.ID] = p
	return nil
}

func (s *MemoryProspects) DeleteBatch(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := s.rows[id]; ok {
			delete(s.rows, id)
			n++
		}
	}
	if n > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if _, ok := s.rows[id]; ok {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	return n, nil
}

// MemoryMappings keeps mapping configs by name.
type MemoryMappings struct {
	mu      sync.RWMutex
	configs map[string]core.MappingConfig
}

func NewMemoryMappings() *MemoryMappings {
	return &MemoryMappings{configs: make(map[string]core.MappingConfig)}
}

func (s *MemoryMappings) List(_ context.Context) ([]core.MappingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MappingConfig, 0, len(s.configs))
	for _, c := range s.configs {
		out = append(out, cloneConfig(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save replaces any config with the same name.
func (s *MemoryMappings) Save(_ context.Context, cfg core.MappingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.Name] = cloneConfig(cfg)
	return nil
}

func (s *MemoryMappings) FindByName(_ context.Context, name string) (core.MappingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[name]
	if !ok {
		return core.MappingConfig{}, core.ErrNotFound
	}
	return cloneConfig(cfg), nil
}

// cloneConfig detaches the mapping slice from the caller's.
func cloneConfig(c core.MappingConfig) core.MappingConfig {
	c.Mappings = append([]core.ColumnMapping(nil), c.Mappings...)
	return c
}
