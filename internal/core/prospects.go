package core

import (
	"context"
	"fmt"
	"time"
)

// ApplyStatus moves p to status. Entering the sold state stamps the sale
// date and price together; leaving it clears both together.
func ApplyStatus(p Prospect, status Status, salePrice float64, at time.Time) (Prospect, error) {
	if _, ok := ParseStatus(string(status)); !ok || status == "" {
		return p, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	switch {
	case status == StatusVendu && p.Status != StatusVendu:
		if salePrice < 0 {
			return p, ErrInvalidSalePrice
		}
		sold := at
		price := salePrice
		p.DateSold = &sold
		p.LeadPrice = &price
	case status != StatusVendu:
		p.DateSold = nil
		p.LeadPrice = nil
	}
	p.Status = status
	return p, nil
}

// SetStatus changes the lifecycle state of one prospect.
func (s *Service) SetStatus(ctx context.Context, id string, status Status, salePrice float64) (Prospect, error) {
	current, ok := s.find(id)
	if !ok {
		return Prospect{}, fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}

	updated, err := ApplyStatus(current, status, salePrice, s.now())
	if err != nil {
		return Prospect{}, err
	}
	if err := s.UpdateProspect(ctx, updated); err != nil {
		return Prospect{}, err
	}
	return updated, nil
}

// UpdateProspect replaces one prospect. Identity and creation time are kept
// from the stored record.
func (s *Service) UpdateProspect(ctx context.Context, p Prospect) error {
	current, ok := s.find(p.ID)
	if !ok {
		return fmt.Errorf("prospect %s: %w", p.ID, ErrNotFound)
	}
	p.DateCreation = current.DateCreation
	if (p.DateSold == nil) != (p.LeadPrice == nil) {
		return fmt.Errorf("prospect %s: sale date and lead price must be set together", p.ID)
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release()

	if err := s.prospects.UpdateOne(ctx, p); err != nil {
		return fmt.Errorf("update prospect %s: %w", p.ID, err)
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == p.ID {
			s.cache[i] = p
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteProspects removes prospects by id and returns how many were deleted.
func (s *Service) DeleteProspects(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return 0, err
	}
	defer s.gate.Release()

	n, err := s.prospects.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete prospects: %w", err)
	}
	s.dropFromCache(ids)
	s.logger.Info("prospects deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

func (s *Service) find(id string) (Prospect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.cache {
		if p.ID == id {
			return p, true
		}
	}
	return Prospect{}, false
}

func (s *Service) dropFromCache(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.cache[:0]
	for _, p := range s.cache {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	s.cache = kept
	s.mu.Unlock()
}
