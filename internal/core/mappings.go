package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MappingMatchThreshold is the minimum share of a saved config's headers that
// must appear in a file for the config to be suggested.
const MappingMatchThreshold = 0.7

// ErrMappingNameRequired is returned when saving a config without a name.
var ErrMappingNameRequired = errors.New("mapping name is required")

// MappingStore persists named mapping configs across restarts.
//
// Save overwrites any config with the same name. FindByName returns
// ErrNotFound when no config has that name. List is sorted by name.
type MappingStore interface {
	List(ctx context.Context) ([]MappingConfig, error)
	Save(ctx context.Context, cfg MappingConfig) error
	FindByName(ctx context.Context, name string) (MappingConfig, error)
}

// ValidateConfigName trims and checks a config name. Mapping content is not
// checked at save time; it is re-checked when applied to a file.
func ValidateConfigName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrMappingNameRequired
	}
	return name, nil
}

// ApplyConfig pre-fills the mappings of a new file from a saved config.
// Every header of the file gets one entry: the saved field when the config
// knows the header, unset otherwise. Saved headers the file does not contain
// are ignored.
func ApplyConfig(cfg MappingConfig, headers []string) []ColumnMapping {
	saved := make(map[string]FieldKey, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		saved[normalizeHeaderKey(m.Header)] = m.Field
	}

	out := make([]ColumnMapping, len(headers))
	for i, h := range headers {
		out[i] = ColumnMapping{Header: h, Field: saved[normalizeHeaderKey(h)]}
	}
	return out
}

// MatchConfigs ranks saved configs by how many of their headers appear in
// headers. Only configs at or above MappingMatchThreshold are returned,
// best first.
func MatchConfigs(configs []MappingConfig, headers []string) []MappingMatch {
	var matches []MappingMatch
	for _, cfg := range configs {
		score := matchHeaders(headers, cfg.Mappings)
		if score >= MappingMatchThreshold {
			matches = append(matches, MappingMatch{Config: cfg, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// matchHeaders returns the share of saved headers found in csvHeaders.
func matchHeaders(csvHeaders []string, saved []ColumnMapping) float64 {
	if len(saved) == 0 {
		return 0
	}

	csvSet := make(map[string]bool, len(csvHeaders))
	for _, h := range csvHeaders {
		csvSet[normalizeHeaderKey(h)] = true
	}

	matched := 0
	for _, m := range saved {
		if csvSet[normalizeHeaderKey(m.Header)] {
			matched++
		}
	}
	return float64(matched) / float64(len(saved))
}

func normalizeHeaderKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// SaveMapping stores cfg under its trimmed name, replacing any config of the same name.
func (s *Service) SaveMapping(ctx context.Context, cfg MappingConfig) (MappingConfig, error) {
	name, err := ValidateConfigName(cfg.Name)
	if err != nil {
		return MappingConfig{}, err
	}
	cfg.Name = name
	cfg.UpdatedAt = s.now()

	if err := s.mappings.Save(ctx, cfg); err != nil {
		return MappingConfig{}, fmt.Errorf("save mapping: %w", err)
	}
	s.logger.Info("mapping saved", "name", cfg.Name, "entries", len(cfg.Mappings))
	return cfg, nil
}

// ListMappings returns every saved config sorted by name.
func (s *Service) ListMappings(ctx context.Context) ([]MappingConfig, error) {
	configs, err := s.mappings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return configs, nil
}

// GetMapping returns the config named name, or ErrNotFound.
func (s *Service) GetMapping(ctx context.Context, name string) (MappingConfig, error) {
	cfg, err := s.mappings.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return MappingConfig{}, fmt.Errorf("get mapping %q: %w", name, err)
	}
	return cfg, nil
}

// ApplySavedMapping pre-fills the mappings of an open import from the
// config named name.
func (s *Service) ApplySavedMapping(ctx context.Context, importID, name string) ([]ColumnMapping, error) {
	sess, err := s.session(importID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.GetMapping(ctx, name)
	if err != nil {
		return nil, err
	}
	return ApplyConfig(cfg, sess.parsed.Headers), nil
}
