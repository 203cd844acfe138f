package clickhouse

import (
	"context"
	"fmt"
	"time"

	"scalp-engine/internal/domain"
)

// TradeAnalyticsStore is the ClickHouse sink for resolved trades. It exists
// for aggregate queries over long histories; the Postgres ledger stays the
// source of truth.
type TradeAnalyticsStore struct {
	conn *Conn
}

// NewTradeAnalyticsStore creates a new TradeAnalyticsStore.
func NewTradeAnalyticsStore(conn *Conn) *TradeAnalyticsStore {
	return &TradeAnalyticsStore{conn: conn}
}

// SymbolStats is a per-symbol aggregate over recorded trades.
type SymbolStats struct {
	Symbol         string
	Trades         uint64
	Wins           uint64
	NetProfit      float64
	AvgHoldMs      float64
	AvgNetPerTrade float64
}

// PnlPoint is one bucket of the profit curve.
type PnlPoint struct {
	Bucket    time.Time
	Trades    uint64
	NetProfit float64
}

// InsertBulk appends trades to the analytics table. ClickHouse MergeTree
// does not enforce uniqueness; replays rely on the ledger's dedup upstream.
func (s *TradeAnalyticsStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_analytics (
			trade_id, session_id, sequence, exchange, symbol, direction,
			entry_price, exit_price, position_size,
			exit_reason, hold_time_ms,
			gross_profit, fees, net_profit, is_win,
			completed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.TradeID, t.SessionID, uint64(t.Sequence), t.Exchange, t.Symbol, string(t.Direction),
			t.EntryPrice, t.ExitPrice, t.PositionSize,
			t.ExitReason, uint64(t.HoldTimeMs),
			t.GrossProfit, t.Fees, t.NetProfit, t.IsWin,
			t.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetSymbolStats aggregates a session's trades per symbol.
func (s *TradeAnalyticsStore) GetSymbolStats(ctx context.Context, sessionID string) ([]*SymbolStats, error) {
	query := `
		SELECT
			symbol,
			count() AS trades,
			countIf(is_win) AS wins,
			sum(net_profit) AS net_profit,
			avg(hold_time_ms) AS avg_hold_ms,
			avg(net_profit) AS avg_net
		FROM trade_analytics
		WHERE session_id = ?
		GROUP BY symbol
		ORDER BY symbol ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query symbol stats: %w", err)
	}
	defer rows.Close()

	var stats []*SymbolStats
	for rows.Next() {
		var st SymbolStats
		if err := rows.Scan(
			&st.Symbol, &st.Trades, &st.Wins,
			&st.NetProfit, &st.AvgHoldMs, &st.AvgNetPerTrade,
		); err != nil {
			return nil, fmt.Errorf("scan symbol stats row: %w", err)
		}
		stats = append(stats, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol stats rows: %w", err)
	}

	return stats, nil
}

// GetPnlCurve buckets a session's net profit into fixed intervals.
func (s *TradeAnalyticsStore) GetPnlCurve(ctx context.Context, sessionID string, bucket time.Duration) ([]*PnlPoint, error) {
	seconds := int64(bucket.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	query := `
		SELECT
			toStartOfInterval(completed_at, INTERVAL ? SECOND) AS bucket,
			count() AS trades,
			sum(net_profit) AS net_profit
		FROM trade_analytics
		WHERE session_id = ?
		GROUP BY bucket
		ORDER BY bucket ASC
	`

	rows, err := s.conn.Query(ctx, query, seconds, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query pnl curve: %w", err)
	}
	defer rows.Close()

	var points []*PnlPoint
	for rows.Next() {
		var p PnlPoint
		if err := rows.Scan(&p.Bucket, &p.Trades, &p.NetProfit); err != nil {
			return nil, fmt.Errorf("scan pnl curve row: %w", err)
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pnl curve rows: %w", err)
	}

	return points, nil
}
