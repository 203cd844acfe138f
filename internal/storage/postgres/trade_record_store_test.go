package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

func createTestTradeRecord(sessionID, tradeID string, seq int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:       tradeID,
		SessionID:     sessionID,
		Sequence:      seq,
		Exchange:      "paper",
		Symbol:        "BTCUSDT",
		Direction:     domain.DirectionLong,
		EntryPrice:    100.0,
		ExitPrice:     100.5,
		PositionSize:  2.0,
		SizingBasis:   1000.0,
		TakeProfitPct: 0.5,
		StopLossPct:   0.1,
		MaxHoldMs:     10_000,
		ExitReason:    domain.ExitReasonTakeProfit,
		HoldTimeMs:    1200,
		GrossProfit:   1.0,
		Fees:          0.2005,
		NetProfit:     0.7995,
		IsWin:         true,
		Timestamp:     time.Unix(1700000000, 0).Add(time.Duration(seq) * time.Minute).UTC(),
	}
}

func TestTradeRecordStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	trade := createTestTradeRecord("sess-pg-1", "trade-001", 1)

	err := store.Insert(ctx, trade)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "trade-001")
	require.NoError(t, err)

	assert.Equal(t, trade.TradeID, retrieved.TradeID)
	assert.Equal(t, trade.SessionID, retrieved.SessionID)
	assert.Equal(t, trade.Sequence, retrieved.Sequence)
	assert.Equal(t, trade.Exchange, retrieved.Exchange)
	assert.Equal(t, trade.Symbol, retrieved.Symbol)
	assert.Equal(t, trade.Direction, retrieved.Direction)
	assert.InDelta(t, trade.EntryPrice, retrieved.EntryPrice, 1e-9)
	assert.InDelta(t, trade.ExitPrice, retrieved.ExitPrice, 1e-9)
	assert.InDelta(t, trade.PositionSize, retrieved.PositionSize, 1e-9)
	assert.InDelta(t, trade.SizingBasis, retrieved.SizingBasis, 1e-9)
	assert.InDelta(t, trade.TakeProfitPct, retrieved.TakeProfitPct, 1e-9)
	assert.InDelta(t, trade.StopLossPct, retrieved.StopLossPct, 1e-9)
	assert.Equal(t, trade.MaxHoldMs, retrieved.MaxHoldMs)
	assert.Equal(t, trade.ExitReason, retrieved.ExitReason)
	assert.Equal(t, trade.HoldTimeMs, retrieved.HoldTimeMs)
	assert.InDelta(t, trade.GrossProfit, retrieved.GrossProfit, 1e-9)
	assert.InDelta(t, trade.Fees, retrieved.Fees, 1e-9)
	assert.InDelta(t, trade.NetProfit, retrieved.NetProfit, 1e-9)
	assert.Equal(t, trade.IsWin, retrieved.IsWin)
	assert.True(t, trade.Timestamp.Equal(retrieved.Timestamp),
		"timestamp mismatch: want %v, got %v", trade.Timestamp, retrieved.Timestamp)
}

func TestTradeRecordStore_DuplicateInsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	trade := createTestTradeRecord("sess-pg-dup", "trade-dup", 1)
	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeRecordStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	_, err := store.GetByID(ctx, "no-such-trade")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_GetBySession_Ordered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	// Insert out of sequence order.
	for _, seq := range []int64{3, 1, 2} {
		trade := createTestTradeRecord("sess-pg-order", tradeID("sess-pg-order", seq), seq)
		require.NoError(t, store.Insert(ctx, trade))
	}
	other := createTestTradeRecord("sess-pg-other", "trade-other-1", 1)
	require.NoError(t, store.Insert(ctx, other))

	trades, err := store.GetBySession(ctx, "sess-pg-order")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	for i, tr := range trades {
		assert.Equal(t, int64(i+1), tr.Sequence)
		assert.Equal(t, "sess-pg-order", tr.SessionID)
	}
}

func TestTradeRecordStore_GetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	btc := createTestTradeRecord("sess-pg-sym", "trade-sym-1", 1)
	eth := createTestTradeRecord("sess-pg-sym", "trade-sym-2", 2)
	eth.Symbol = "ETHUSDT"
	require.NoError(t, store.Insert(ctx, btc))
	require.NoError(t, store.Insert(ctx, eth))

	trades, err := store.GetBySymbol(ctx, "sess-pg-sym", "ETHUSDT")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "trade-sym-2", trades[0].TradeID)
}

func TestTradeRecordStore_GetByTimeRange_Inclusive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	base := time.Unix(1700000000, 0).UTC()
	var bounds [4]int64
	for seq := int64(1); seq <= 4; seq++ {
		trade := createTestTradeRecord("sess-pg-range", tradeID("sess-pg-range", seq), seq)
		trade.Timestamp = base.Add(time.Duration(seq) * time.Hour)
		bounds[seq-1] = trade.Timestamp.UnixMilli()
		require.NoError(t, store.Insert(ctx, trade))
	}

	// Range boundaries are inclusive on both ends.
	trades, err := store.GetByTimeRange(ctx, "sess-pg-range", bounds[1], bounds[2])
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, int64(2), trades[0].Sequence)
	assert.Equal(t, int64(3), trades[1].Sequence)
}

func TestTradeRecordStore_InsertBulk_AllOrNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	existing := createTestTradeRecord("sess-pg-bulk", "trade-bulk-1", 1)
	require.NoError(t, store.Insert(ctx, existing))

	batch := []*domain.TradeRecord{
		createTestTradeRecord("sess-pg-bulk", "trade-bulk-2", 2),
		createTestTradeRecord("sess-pg-bulk", "trade-bulk-1", 3), // duplicate ID
	}
	err := store.InsertBulk(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing from the failed batch landed.
	trades, err := store.GetBySession(ctx, "sess-pg-bulk")
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	// A clean batch succeeds.
	ok := []*domain.TradeRecord{
		createTestTradeRecord("sess-pg-bulk", "trade-bulk-2", 2),
		createTestTradeRecord("sess-pg-bulk", "trade-bulk-3", 3),
	}
	require.NoError(t, store.InsertBulk(ctx, ok))

	trades, err = store.GetBySession(ctx, "sess-pg-bulk")
	require.NoError(t, err)
	assert.Len(t, trades, 3)
}

func tradeID(sessionID string, seq int64) string {
	return fmt.Sprintf("%s-trade-%d", sessionID, seq)
}
