package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:   "trade1",
		SessionID: "sess1",
		Sequence:  1,
		Symbol:    "BTCUSDT",
		Direction: domain.DirectionLong,
		NetProfit: 0.85,
		IsWin:     true,
	}

	err := store.Insert(ctx, trade)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.NetProfit != 0.85 {
		t.Errorf("NetProfit mismatch: got %f, want %f", got.NetProfit, 0.85)
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "trade1", SessionID: "sess1", Sequence: 1}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_NotFound(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeRecordStore_GetBySessionOrdered(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	// Insert out of order; reads must come back by sequence.
	trades := []*domain.TradeRecord{
		{TradeID: "t3", SessionID: "sess1", Sequence: 3, Symbol: "ETHUSDT"},
		{TradeID: "t1", SessionID: "sess1", Sequence: 1, Symbol: "BTCUSDT"},
		{TradeID: "t2", SessionID: "sess1", Sequence: 2, Symbol: "BTCUSDT"},
		{TradeID: "x1", SessionID: "sess2", Sequence: 1, Symbol: "BTCUSDT"},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySession(ctx, "sess1")
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 trades for sess1, got %d", len(result))
	}
	for i, r := range result {
		if r.Sequence != int64(i+1) {
			t.Errorf("Position %d: expected sequence %d, got %d", i, i+1, r.Sequence)
		}
	}
}

func TestTradeRecordStore_GetBySymbol(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", SessionID: "sess1", Sequence: 1, Symbol: "BTCUSDT"},
		{TradeID: "t2", SessionID: "sess1", Sequence: 2, Symbol: "ETHUSDT"},
		{TradeID: "t3", SessionID: "sess1", Sequence: 3, Symbol: "BTCUSDT"},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, _ := store.GetBySymbol(ctx, "sess1", "BTCUSDT")
	if len(result) != 2 {
		t.Errorf("Expected 2 BTCUSDT trades, got %d", len(result))
	}
}

func TestTradeRecordStore_GetByTimeRange(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000).UTC()
	trades := []*domain.TradeRecord{
		{TradeID: "t1", SessionID: "sess1", Sequence: 1, Timestamp: base},
		{TradeID: "t2", SessionID: "sess1", Sequence: 2, Timestamp: base.Add(time.Minute)},
		{TradeID: "t3", SessionID: "sess1", Sequence: 3, Timestamp: base.Add(2 * time.Minute)},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	start := base.UnixMilli()
	end := base.Add(time.Minute).UnixMilli()
	result, _ := store.GetByTimeRange(ctx, "sess1", start, end)
	if len(result) != 2 {
		t.Errorf("Expected 2 trades in range (inclusive bounds), got %d", len(result))
	}
}

func TestTradeRecordStore_InsertBulkPartialDuplicate(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	first := &domain.TradeRecord{TradeID: "t1", SessionID: "sess1", Sequence: 1}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	trades := []*domain.TradeRecord{
		{TradeID: "t2", SessionID: "sess1", Sequence: 2},
		{TradeID: "t1", SessionID: "sess1", Sequence: 1}, // duplicate
	}

	err := store.InsertBulk(ctx, trades)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify all-or-nothing
	all, _ := store.GetBySession(ctx, "sess1")
	if len(all) != 1 {
		t.Errorf("Expected 1 trade (no partial insert), got %d", len(all))
	}
}

func TestTradeRecordStore_ValueCopyOnRead(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "t1", SessionID: "sess1", Sequence: 1, NetProfit: 0.5}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "t1")
	got.NetProfit = 99.0

	again, _ := store.GetByID(ctx, "t1")
	if again.NetProfit != 0.5 {
		t.Errorf("Stored record was mutated through a read copy: got %f", again.NetProfit)
	}
}
