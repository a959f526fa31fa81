package core

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyBatch is returned when a commit has no valid prospect to write.
var ErrEmptyBatch = errors.New("no valid prospects to import")

// Commit writes one validated batch to the prospect store.
//
// Every record is stamped with campaignID and prospectPrice, which belong to
// the import rather than to CSV rows. The batch is inserted as a whole: on
// failure nothing stays in the store and the in-memory collection is
// unchanged. On success the collection already contains the batch when
// Commit returns.
//
// Duplicates of prospects from earlier imports are not detected.
func (s *Service) Commit(ctx context.Context, valid []Prospect, campaignID string, prospectPrice float64) (*ImportBatch, error) {
	if len(valid) == 0 {
		return nil, ErrEmptyBatch
	}

	batch := make([]Prospect, len(valid))
	ids := make([]string, len(valid))
	for i, p := range valid {
		p.Campagne = campaignID
		p.ProspectPrice = prospectPrice
		batch[i] = p
		ids[i] = p.ID
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, &CommitError{Count: len(batch), Err: err}
	}
	defer s.gate.Release()

	start := time.Now()
	err := s.prospects.AddBatch(ctx, batch)
	s.metrics.ObserveCommit(len(batch), time.Since(start), err)
	if err != nil {
		s.compensate(err)
		s.logger.Error("commit failed", "count", len(batch), "campaign", campaignID, "error", err)
		return nil, &CommitError{Count: len(batch), Err: err}
	}

	s.mu.Lock()
	merged := make([]Prospect, 0, len(batch)+len(s.cache))
	merged = append(merged, batch...)
	merged = append(merged, s.cache...)
	sortNewestFirst(merged)
	s.cache = merged

	record := ImportBatch{
		ID:            s.idGen(),
		CampaignID:    campaignID,
		ProspectPrice: prospectPrice,
		ProspectIDs:   ids,
		Count:         len(batch),
		CommittedAt:   s.now(),
	}
	s.batches = append(s.batches, record)
	s.mu.Unlock()

	return &record, nil
}

// compensate removes whatever a non-atomic store managed to write before failing.
func (s *Service) compensate(err error) {
	var partial *PartialWriteError
	if !errors.As(err, &partial) || len(partial.Written) == 0 {
		return
	}

	// The caller's context may be the one that failed the write.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, derr := s.prospects.DeleteBatch(ctx, partial.Written)
	if derr != nil {
		s.logger.Error("compensating delete failed",
			"written", len(partial.Written),
			"deleted", n,
			"error", derr,
		)
		return
	}
	s.logger.Warn("partial batch removed", "deleted", n)
}
