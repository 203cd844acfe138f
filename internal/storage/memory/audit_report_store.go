package memory

import (
	"context"
	"sort"
	"sync"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

// AuditReportStore is an in-memory implementation of storage.AuditReportStore.
type AuditReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AuditReport // keyed by report_id
}

// NewAuditReportStore creates a new in-memory audit report store.
func NewAuditReportStore() *AuditReportStore {
	return &AuditReportStore{
		data: make(map[string]*domain.AuditReport),
	}
}

// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
func (s *AuditReportStore) Insert(_ context.Context, r *domain.AuditReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ReportID] = copyReport(r)
	return nil
}

// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
func (s *AuditReportStore) GetByID(_ context.Context, reportID string) (*domain.AuditReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[reportID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyReport(r), nil
}

// GetBySession retrieves all reports for a session, ordered by report number ASC.
func (s *AuditReportStore) GetBySession(_ context.Context, sessionID string) ([]*domain.AuditReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AuditReport
	for _, r := range s.data {
		if r.SessionID == sessionID {
			result = append(result, copyReport(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReportNumber < result[j].ReportNumber
	})

	return result, nil
}

// GetLatest retrieves the highest-numbered report for a session.
// Returns ErrNotFound if the session has no reports.
func (s *AuditReportStore) GetLatest(_ context.Context, sessionID string) (*domain.AuditReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.AuditReport
	for _, r := range s.data {
		if r.SessionID != sessionID {
			continue
		}
		if latest == nil || r.ReportNumber > latest.ReportNumber {
			latest = r
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyReport(latest), nil
}

// copyReport deep-copies a report so callers cannot mutate stored state
// through the shared invariant results slice.
func copyReport(r *domain.AuditReport) *domain.AuditReport {
	out := *r
	out.InvariantResults = make([]domain.InvariantResult, len(r.InvariantResults))
	copy(out.InvariantResults, r.InvariantResults)
	return &out
}

var _ storage.AuditReportStore = (*AuditReportStore)(nil)
