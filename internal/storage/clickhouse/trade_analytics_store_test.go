package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalp-engine/internal/domain"
)

func analyticsTrade(sessionID, symbol string, seq int64, net float64, win bool, at time.Time) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:       fmt.Sprintf("%s-trade-%d", sessionID, seq),
		SessionID:     sessionID,
		Sequence:      seq,
		Exchange:      "paper",
		Symbol:        symbol,
		Direction:     domain.DirectionLong,
		EntryPrice:    100.0,
		ExitPrice:     100.5,
		PositionSize:  2.0,
		SizingBasis:   1000.0,
		TakeProfitPct: 0.5,
		StopLossPct:   0.1,
		MaxHoldMs:     10_000,
		ExitReason:    domain.ExitReasonTakeProfit,
		HoldTimeMs:    1000 + seq*100,
		GrossProfit:   net + 0.2,
		Fees:          0.2,
		NetProfit:     net,
		IsWin:         win,
		Timestamp:     at,
	}
}

func TestTradeAnalyticsStore_InsertBulkAndSymbolStats(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeAnalyticsStore(conn)

	base := time.Unix(1700000000, 0).UTC()
	trades := []*domain.TradeRecord{
		analyticsTrade("sess-ch-1", "BTCUSDT", 1, 0.8, true, base),
		analyticsTrade("sess-ch-1", "BTCUSDT", 2, 0.6, true, base.Add(time.Minute)),
		analyticsTrade("sess-ch-1", "ETHUSDT", 3, 0.4, true, base.Add(2*time.Minute)),
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	// Trades from another session must not leak into the stats.
	other := []*domain.TradeRecord{
		analyticsTrade("sess-ch-2", "BTCUSDT", 1, 5.0, true, base),
	}
	require.NoError(t, store.InsertBulk(ctx, other))

	stats, err := store.GetSymbolStats(ctx, "sess-ch-1")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	bySymbol := make(map[string]*SymbolStats)
	for _, s := range stats {
		bySymbol[s.Symbol] = s
	}

	btc := bySymbol["BTCUSDT"]
	require.NotNil(t, btc)
	assert.Equal(t, uint64(2), btc.Trades)
	assert.Equal(t, uint64(2), btc.Wins)
	assert.InDelta(t, 1.4, btc.NetProfit, 1e-9)
	assert.InDelta(t, 0.7, btc.AvgNetPerTrade, 1e-9)
	assert.InDelta(t, 1150.0, btc.AvgHoldMs, 1e-6)

	eth := bySymbol["ETHUSDT"]
	require.NotNil(t, eth)
	assert.Equal(t, uint64(1), eth.Trades)
	assert.InDelta(t, 0.4, eth.NetProfit, 1e-9)
}

func TestTradeAnalyticsStore_InsertBulk_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeAnalyticsStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

func TestTradeAnalyticsStore_PnlCurve(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeAnalyticsStore(conn)

	base := time.Unix(1700000000, 0).UTC().Truncate(time.Hour)
	trades := []*domain.TradeRecord{
		analyticsTrade("sess-ch-curve", "BTCUSDT", 1, 0.5, true, base.Add(1*time.Minute)),
		analyticsTrade("sess-ch-curve", "BTCUSDT", 2, 0.5, true, base.Add(2*time.Minute)),
		analyticsTrade("sess-ch-curve", "BTCUSDT", 3, 0.7, true, base.Add(61*time.Minute)),
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	points, err := store.GetPnlCurve(ctx, "sess-ch-curve", time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, uint64(2), points[0].Trades)
	assert.InDelta(t, 1.0, points[0].NetProfit, 1e-9)
	assert.Equal(t, uint64(1), points[1].Trades)
	assert.InDelta(t, 0.7, points[1].NetProfit, 1e-9)
	assert.True(t, points[0].Bucket.Before(points[1].Bucket))
}
