package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, session_id, sequence, exchange,
	symbol, direction,
	entry_price, exit_price, position_size, sizing_basis,
	take_profit_pct, stop_loss_pct, max_hold_ms,
	exit_reason, hold_time_ms,
	gross_profit, fees, net_profit, is_win,
	completed_at
`

const insertTradeRecordQuery = `
	INSERT INTO trade_records (` + tradeRecordColumns + `
	) VALUES (
		$1, $2, $3, $4,
		$5, $6,
		$7, $8, $9, $10,
		$11, $12, $13,
		$14, $15,
		$16, $17, $18, $19,
		$20
	)
`

func tradeRecordArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.SessionID, t.Sequence, t.Exchange,
		t.Symbol, t.Direction,
		t.EntryPrice, t.ExitPrice, t.PositionSize, t.SizingBasis,
		t.TakeProfitPct, t.StopLossPct, t.MaxHoldMs,
		t.ExitReason, t.HoldTimeMs,
		t.GrossProfit, t.Fees, t.NetProfit, t.IsWin,
		t.Timestamp,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetBySession retrieves all trades for a session, ordered by sequence ASC.
func (s *TradeRecordStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE session_id = $1
		ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by session: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetBySymbol retrieves all trades for a session/symbol pair, ordered by sequence ASC.
func (s *TradeRecordStore) GetBySymbol(ctx context.Context, sessionID, symbol string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE session_id = $1 AND symbol = $2
		ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trade records by symbol: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByTimeRange retrieves a session's trades completed within [start, end]
// (inclusive, unix milliseconds), ordered by sequence ASC.
func (s *TradeRecordStore) GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE session_id = $1
		  AND completed_at >= to_timestamp($2::double precision / 1000.0)
		  AND completed_at <= to_timestamp($3::double precision / 1000.0)
		ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trade records by time range: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord

	err := row.Scan(
		&t.TradeID, &t.SessionID, &t.Sequence, &t.Exchange,
		&t.Symbol, &t.Direction,
		&t.EntryPrice, &t.ExitPrice, &t.PositionSize, &t.SizingBasis,
		&t.TakeProfitPct, &t.StopLossPct, &t.MaxHoldMs,
		&t.ExitReason, &t.HoldTimeMs,
		&t.GrossProfit, &t.Fees, &t.NetProfit, &t.IsWin,
		&t.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		var t domain.TradeRecord

		err := rows.Scan(
			&t.TradeID, &t.SessionID, &t.Sequence, &t.Exchange,
			&t.Symbol, &t.Direction,
			&t.EntryPrice, &t.ExitPrice, &t.PositionSize, &t.SizingBasis,
			&t.TakeProfitPct, &t.StopLossPct, &t.MaxHoldMs,
			&t.ExitReason, &t.HoldTimeMs,
			&t.GrossProfit, &t.Fees, &t.NetProfit, &t.IsWin,
			&t.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
