package domain

import "time"

// Direction of a position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Exit reason codes.
const (
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTimeOut    = "TIME_OUT"
	ExitReasonCancelled  = "CANCELLED"
	ExitReasonError      = "ERROR"
)

// TradeCycle is one ephemeral trade attempt. It exists from candidate
// selection until the exit monitor resolves; a profitable, non-cancelled
// cycle is converted into an immutable TradeRecord, everything else is
// discarded.
type TradeCycle struct {
	Symbol    string
	Direction Direction

	EntryPrice   float64
	PositionSize float64 // base units
	SizingBasis  float64 // floor balance the sizing was derived from

	TakeProfitPct float64 // percent move that takes profit
	StopLossPct   float64 // percent adverse move that stops out
	MaxHold       time.Duration

	StartedAt time.Time

	// Resolution, filled by the exit monitor.
	ExitPrice   float64
	ExitReason  string
	HoldTime    time.Duration
	GrossProfit float64
	Fees        float64
	NetProfit   float64
}

// TradeRecord is the immutable, append-only ledger form of a resolved cycle.
// Under current policy every recorded trade is a win; see the audit package's
// minimum-profit invariant.
type TradeRecord struct {
	TradeID   string // deterministic hash
	SessionID string
	Sequence  int64 // completion order within the session, starting at 1
	Exchange  string

	Symbol    string
	Direction Direction

	EntryPrice   float64
	ExitPrice    float64
	PositionSize float64
	SizingBasis  float64

	TakeProfitPct float64
	StopLossPct   float64
	MaxHoldMs     int64

	ExitReason  string
	HoldTimeMs  int64
	GrossProfit float64
	Fees        float64
	NetProfit   float64
	IsWin       bool

	Timestamp time.Time // completion time
}

// Record converts a resolved cycle into a ledger record. The caller supplies
// identity and ordering; every cycle field survives the conversion.
func (c *TradeCycle) Record(tradeID, sessionID, exchange string, seq int64, at time.Time) *TradeRecord {
	return &TradeRecord{
		TradeID:       tradeID,
		SessionID:     sessionID,
		Sequence:      seq,
		Exchange:      exchange,
		Symbol:        c.Symbol,
		Direction:     c.Direction,
		EntryPrice:    c.EntryPrice,
		ExitPrice:     c.ExitPrice,
		PositionSize:  c.PositionSize,
		SizingBasis:   c.SizingBasis,
		TakeProfitPct: c.TakeProfitPct,
		StopLossPct:   c.StopLossPct,
		MaxHoldMs:     c.MaxHold.Milliseconds(),
		ExitReason:    c.ExitReason,
		HoldTimeMs:    c.HoldTime.Milliseconds(),
		GrossProfit:   c.GrossProfit,
		Fees:          c.Fees,
		NetProfit:     c.NetProfit,
		IsWin:         c.NetProfit > 0 && c.ExitReason != ExitReasonCancelled,
		Timestamp:     at,
	}
}
