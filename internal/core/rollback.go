package core

import (
	"context"
	"errors"
	"fmt"
)

// Batches returns the batches committed by this service, oldest first.
func (s *Service) Batches() []ImportBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ImportBatch, len(s.batches))
	copy(out, s.batches)
	return out
}

// RollbackBatch deletes every prospect written by a committed batch. The
// batch is marked rolled back before the delete so a concurrent rollback of
// the same batch gets ErrAlreadyRolledBack. The mark is cleared if the
// delete fails.
func (s *Service) RollbackBatch(ctx context.Context, batchID string) (RollbackResult, error) {
	result := RollbackResult{BatchID: batchID}

	batch, err := s.claimRollback(batchID)
	if err != nil {
		result.Error = err.Error()
		if errors.Is(err, ErrNotFound) {
			result.Error = "batch not found"
		}
		return result, fmt.Errorf("batch %s: %w", batchID, err)
	}

	deleted, err := s.DeleteProspects(ctx, batch.ProspectIDs)
	if err != nil {
		s.setRolledBack(batchID, false)
		result.Error = fmt.Sprintf("delete failed: %v", err)
		return result, fmt.Errorf("rollback batch %s: %w", batchID, err)
	}

	s.metrics.ObserveRollback(deleted)
	s.logger.Info("batch rolled back", "batch_id", batchID, "rows_deleted", deleted)

	result.RowsDeleted = deleted
	result.Success = true
	return result, nil
}

// claimRollback marks a batch rolled back and returns it as it was.
func (s *Service) claimRollback(batchID string) (ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.batches {
		if s.batches[i].ID != batchID {
			continue
		}
		if s.batches[i].RolledBack {
			return ImportBatch{}, ErrAlreadyRolledBack
		}
		batch := s.batches[i]
		s.batches[i].RolledBack = true
		return batch, nil
	}
	return ImportBatch{}, ErrNotFound
}

func (s *Service) setRolledBack(batchID string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.batches {
		if s.batches[i].ID == batchID {
			s.batches[i].RolledBack = v
		}
	}
}
