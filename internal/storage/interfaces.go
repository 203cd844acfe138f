package storage

import (
	"context"

	"scalp-engine/internal/domain"
)

// TradeRecordStore provides access to trade_records storage. The ledger is
// append-only: recorded trades are never updated or deleted.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySession retrieves all trades for a session, ordered by sequence ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a session/symbol pair, ordered by sequence ASC.
	GetBySymbol(ctx context.Context, sessionID, symbol string) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves a session's trades completed within [start, end]
	// (inclusive, unix milliseconds), ordered by sequence ASC.
	GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.TradeRecord, error)
}

// AuditReportStore provides access to audit_reports storage.
type AuditReportStore interface {
	// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
	Insert(ctx context.Context, r *domain.AuditReport) error

	// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, reportID string) (*domain.AuditReport, error)

	// GetBySession retrieves all reports for a session, ordered by report number ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.AuditReport, error)

	// GetLatest retrieves the highest-numbered report for a session.
	// Returns ErrNotFound if the session has no reports.
	GetLatest(ctx context.Context, sessionID string) (*domain.AuditReport, error)
}
