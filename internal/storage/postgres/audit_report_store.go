package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

// AuditReportStore implements storage.AuditReportStore using PostgreSQL.
// Invariant results are stored as a JSONB column; reports are small and only
// ever read back whole.
type AuditReportStore struct {
	pool *Pool
}

// NewAuditReportStore creates a new AuditReportStore.
func NewAuditReportStore(pool *Pool) *AuditReportStore {
	return &AuditReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuditReportStore = (*AuditReportStore)(nil)

const auditReportColumns = `
	report_id, session_id, report_number, generated_at,
	window_trade_count, rolling_hit_rate, session_hit_rate,
	speed_mode, cooldown_ms, invariant_results, summary
`

// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
func (s *AuditReportStore) Insert(ctx context.Context, r *domain.AuditReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	results, err := json.Marshal(r.InvariantResults)
	if err != nil {
		return fmt.Errorf("marshal invariant results: %w", err)
	}

	query := `
		INSERT INTO audit_reports (` + auditReportColumns + `
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ReportID, r.SessionID, r.ReportNumber, r.GeneratedAt,
		r.WindowTradeCount, r.RollingHitRate, r.SessionHitRate,
		r.SpeedMode, r.CooldownMs, results, r.Summary,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert audit report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
func (s *AuditReportStore) GetByID(ctx context.Context, reportID string) (*domain.AuditReport, error) {
	query := `SELECT ` + auditReportColumns + ` FROM audit_reports WHERE report_id = $1`

	row := s.pool.QueryRow(ctx, query, reportID)
	r, err := scanAuditReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get audit report by id: %w", err)
	}
	return r, nil
}

// GetBySession retrieves all reports for a session, ordered by report number ASC.
func (s *AuditReportStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.AuditReport, error) {
	query := `
		SELECT ` + auditReportColumns + `
		FROM audit_reports
		WHERE session_id = $1
		ORDER BY report_number ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get audit reports by session: %w", err)
	}
	defer rows.Close()

	var reports []*domain.AuditReport
	for rows.Next() {
		r, err := scanAuditReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit report rows: %w", err)
	}

	return reports, nil
}

// GetLatest retrieves the highest-numbered report for a session.
// Returns ErrNotFound if the session has no reports.
func (s *AuditReportStore) GetLatest(ctx context.Context, sessionID string) (*domain.AuditReport, error) {
	query := `
		SELECT ` + auditReportColumns + `
		FROM audit_reports
		WHERE session_id = $1
		ORDER BY report_number DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, sessionID)
	r, err := scanAuditReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest audit report: %w", err)
	}
	return r, nil
}

// scanAuditReport scans a single row into an AuditReport.
func scanAuditReport(row pgx.Row) (*domain.AuditReport, error) {
	var r domain.AuditReport
	var results []byte

	err := row.Scan(
		&r.ReportID, &r.SessionID, &r.ReportNumber, &r.GeneratedAt,
		&r.WindowTradeCount, &r.RollingHitRate, &r.SessionHitRate,
		&r.SpeedMode, &r.CooldownMs, &results, &r.Summary,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(results, &r.InvariantResults); err != nil {
		return nil, fmt.Errorf("unmarshal invariant results: %w", err)
	}

	return &r, nil
}
