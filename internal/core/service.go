package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a parsed but uncommitted import is kept.
const DefaultSessionTTL = 30 * time.Minute

// sampleRows is how many parsed rows are echoed back to the caller.
const sampleRows = 5

// ProspectStore is the durable prospect collection.
//
// AddBatch must be all-or-nothing. A store that cannot guarantee this
// returns a *PartialWriteError naming the records it did write, and the
// caller removes them. UpdateOne returns ErrNotFound for unknown ids.
type ProspectStore interface {
	GetAll(ctx context.Context) ([]Prospect, error)
	AddBatch(ctx context.Context, prospects []Prospect) error
	UpdateOne(ctx context.Context, p Prospect) error
	DeleteBatch(ctx context.Context, ids []string) (int64, error)
}

// PartialWriteError is returned by a ProspectStore whose batch write stopped
// part way. Written holds the ids that were persisted.
type PartialWriteError struct {
	Written []string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write (%d persisted): %v", len(e.Written), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// Metrics receives pipeline measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveParse(rows int, d time.Duration, err error)
	ObserveValidation(valid, invalid int)
	ObserveCommit(count int, d time.Duration, err error)
	ObserveRollback(rows int64)
}

type nopMetrics struct{}

func (nopMetrics) ObserveParse(int, time.Duration, error)  {}
func (nopMetrics) ObserveValidation(int, int)              {}
func (nopMetrics) ObserveCommit(int, time.Duration, error) {}
func (nopMetrics) ObserveRollback(int64)                   {}

// Options configures a Service. Zero values select defaults.
type Options struct {
	MaxFileBytes int64
	CommitWait   time.Duration
	SessionTTL   time.Duration
	Logger       *slog.Logger
	Metrics      Metrics
	Now          func() time.Time
	NewID        func() string
}

// Service runs the import pipeline against a prospect store and a mapping store.
type Service struct {
	prospects ProspectStore
	mappings  MappingStore
	gate      *CommitGate
	metrics   Metrics
	logger    *slog.Logger

	maxFileBytes int64
	sessionTTL   time.Duration
	clock        func() time.Time
	idGen        func() string

	mu       sync.RWMutex
	cache    []Prospect // newest first
	sessions map[string]*importSession
	batches  []ImportBatch
}

type importSession struct {
	id        string
	fileName  string
	parsed    *ParseResult
	createdAt time.Time
}

// ImportDraft is returned when a file is parsed and awaits mapping.
type ImportDraft struct {
	ImportID string          `json:"importId"`
	FileName string          `json:"fileName"`
	Headers  []string        `json:"headers"`
	RowCount int             `json:"rowCount"`
	Sample   []RawRow        `json:"sample"`
	Mappings []ColumnMapping `json:"mappings"`
	Matches  []MappingMatch  `json:"matches"`
}

// CommitRequest carries the choices confirmed by the user for an import.
type CommitRequest struct {
	CampaignID    string          `json:"campaignId"`
	ProspectPrice float64         `json:"prospectPrice"`
	Mappings      []ColumnMapping `json:"mappings"`
}

// NewService creates a Service and loads the prospect collection.
func NewService(ctx context.Context, prospects ProspectStore, mappings MappingStore, opts Options) (*Service, error) {
	if prospects == nil || mappings == nil {
		return nil, errors.New("prospect and mapping stores are required")
	}

	s := &Service{
		prospects:    prospects,
		mappings:     mappings,
		gate:         NewCommitGate(1, opts.CommitWait),
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		maxFileBytes: opts.MaxFileBytes,
		sessionTTL:   opts.SessionTTL,
		clock:        opts.Now,
		idGen:        opts.NewID,
		sessions:     make(map[string]*importSession),
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.idGen == nil {
		s.idGen = uuid.NewString
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) now() time.Time { return s.clock() }

func (s *Service) mapper() Mapper { return Mapper{Now: s.clock, NewID: s.idGen} }

func (s *Service) validator() Validator { return Validator{Now: s.clock, NewID: s.idGen} }

// Refresh reloads the in-memory collection from the store.
func (s *Service) Refresh(ctx context.Context) error {
	all, err := s.prospects.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load prospects: %w", err)
	}
	sortNewestFirst(all)

	s.mu.Lock()
	s.cache = all
	s.mu.Unlock()
	return nil
}

// Prospects returns a copy of the in-memory collection, newest first.
func (s *Service) Prospects() []Prospect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Prospect, len(s.cache))
	copy(out, s.cache)
	return out
}

// Gate exposes the commit gate so shutdown can wait for an in-flight commit.
func (s *Service) Gate() *CommitGate { return s.gate }

// BeginImport parses an uploaded file and opens an import session.
// Nothing is persisted until CommitImport.
func (s *Service) BeginImport(ctx context.Context, fileName string, r io.Reader) (*ImportDraft, error) {
	start := time.Now()
	parsed, err := Parse(r, ParseOptions{MaxBytes: s.maxFileBytes})
	s.metrics.ObserveParse(rowCount(parsed), time.Since(start), err)
	if err != nil {
		s.logger.Warn("parse failed", "file", fileName, "error", err)
		return nil, err
	}

	var matches []MappingMatch
	configs, err := s.mappings.List(ctx)
	if err != nil {
		s.logger.Error("list mappings for match", "error", err)
	} else {
		matches = MatchConfigs(configs, parsed.Headers)
	}

	sess := &importSession{
		id:        s.idGen(),
		fileName:  fileName,
		parsed:    parsed,
		createdAt: s.now(),
	}

	s.mu.Lock()
	s.purgeExpiredLocked()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("import parsed",
		"import_id", sess.id,
		"file", fileName,
		"headers", len(parsed.Headers),
		"rows", len(parsed.Rows),
	)

	sample := parsed.Rows
	if len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}
	return &ImportDraft{
		ImportID: sess.id,
		FileName: fileName,
		Headers:  parsed.Headers,
		RowCount: len(parsed.Rows),
		Sample:   sample,
		Mappings: DefaultMappings(parsed.Headers),
		Matches:  matches,
	}, nil
}

// PreviewImport maps and validates an open import without side effects.
func (s *Service) PreviewImport(ctx context.Context, importID string, mappings []ColumnMapping) (*PreviewResult, error) {
	sess, err := s.session(importID)
	if err != nil {
		return nil, err
	}
	return s.Preview(sess.parsed.Rows, mappings)
}

// Preview runs the column mapper then the validator over rows. Mapping
// entries without a target field are treated as ignored columns.
func (s *Service) Preview(rows []RawRow, mappings []ColumnMapping) (*PreviewResult, error) {
	res, err := s.evaluate(rows, mappings)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveValidation(res.Summary.Valid, res.Summary.Invalid)
	return res, nil
}

// evaluate maps and validates rows without recording validation metrics.
func (s *Service) evaluate(rows []RawRow, mappings []ColumnMapping) (*PreviewResult, error) {
	candidates, err := s.mapper().Apply(rows, ConfirmedMappings(mappings))
	if err != nil {
		return nil, err
	}
	res, err := s.validator().Validate(candidates)
	if err != nil {
		return nil, err
	}

	invalid := res.InvalidRows()
	return &PreviewResult{
		Valid:  res.Valid,
		Errors: res.Errors,
		Summary: PreviewSummary{
			Total:   len(rows),
			Valid:   len(res.Valid),
			Invalid: invalid,
		},
	}, nil
}

// CommitImport validates an open import with the confirmed mappings and
// commits its valid rows. The session is claimed for the duration of the
// commit, so a concurrent commit of the same import gets ErrImportNotFound.
// It is reopened when the commit fails.
func (s *Service) CommitImport(ctx context.Context, importID string, req CommitRequest) (*ImportBatch, *PreviewResult, error) {
	sess, err := s.claimSession(importID)
	if err != nil {
		return nil, nil, err
	}

	preview, err := s.evaluate(sess.parsed.Rows, req.Mappings)
	if err != nil {
		s.reopenSession(sess)
		return nil, nil, err
	}

	batch, err := s.Commit(ctx, preview.Valid, req.CampaignID, req.ProspectPrice)
	if err != nil {
		s.reopenSession(sess)
		return nil, preview, err
	}

	s.logger.Info("import committed",
		"import_id", importID,
		"batch_id", batch.ID,
		"committed", batch.Count,
		"rejected", preview.Summary.Invalid,
	)
	return batch, preview, nil
}

// AbandonImport drops an open import. Nothing was persisted for it.
func (s *Service) AbandonImport(importID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[importID]; !ok {
		return fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	delete(s.sessions, importID)
	return nil
}

func (s *Service) session(importID string) (*importSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	sess, ok := s.sessions[importID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	return sess, nil
}

// claimSession removes an open session and hands it to the caller.
func (s *Service) claimSession(importID string) (*importSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	sess, ok := s.sessions[importID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	delete(s.sessions, importID)
	return sess, nil
}

func (s *Service) reopenSession(sess *importSession) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Service) purgeExpiredLocked() {
	cutoff := s.now().Add(-s.sessionTTL)
	for id, sess := range s.sessions {
		if sess.createdAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// ConfirmedMappings drops entries the user left without a target field.
func ConfirmedMappings(mappings []ColumnMapping) []ColumnMapping {
	out := make([]ColumnMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Field != "" {
			out = append(out, m)
		}
	}
	return out
}

func rowCount(p *ParseResult) int {
	if p == nil {
		return 0
	}
	return len(p.Rows)
}

func sortNewestFirst(ps []Prospect) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].DateCreation.After(ps[j].DateCreation)
	})
}
