package domain

import (
	"errors"
	"fmt"
	"time"
)

// SessionMode selects whether orders are routed to a real exchange or filled
// on paper.
type SessionMode string

const (
	SessionModeLive SessionMode = "LIVE"
	SessionModeDemo SessionMode = "DEMO"
)

// SessionStatus is the lifecycle state of a trade session.
// Transitions: Idle → Starting → Running → Stopping → Stopped, plus a direct
// Running → Stopped edge for emergency stop. Stopped → Starting restarts the
// session with cumulative totals preserved; Reset forces any state back to
// Idle and zeroes the totals.
type SessionStatus string

const (
	StatusIdle     SessionStatus = "IDLE"
	StatusStarting SessionStatus = "STARTING"
	StatusRunning  SessionStatus = "RUNNING"
	StatusStopping SessionStatus = "STOPPING"
	StatusStopped  SessionStatus = "STOPPED"
)

// SessionConfig holds the per-session trading parameters.
type SessionConfig struct {
	Symbols []string // symbols eligible for candidate selection

	DailyTarget    float64 // stop for the day once cumulative net PnL reaches this
	DailyStopLoss  float64 // stop for the day once cumulative net PnL <= -this
	ProfitPerTrade float64 // target net profit per trade (quote currency)
	PositionAmount float64 // notional per position (quote currency)
	MinNetProfit   float64 // floor for a recorded win's net profit
	FeeRate        float64 // taker fee per side, as a fraction (0.001 = 0.1%)

	MinInterval  time.Duration // lower bound on time between attempts
	MaxHold      time.Duration // maximum hold time per trade
	PollInterval time.Duration // exit-monitor price poll interval
}

// PerTradeStopLoss is the maximum tolerated loss per trade, derived as a
// fixed fraction of the per-trade profit target.
func (c SessionConfig) PerTradeStopLoss() float64 {
	return perTradeStopLossFraction * c.ProfitPerTrade
}

const perTradeStopLossFraction = 0.2

// Configuration errors, rejected synchronously at session start.
var (
	ErrNoSymbols         = errors.New("config: at least one symbol is required")
	ErrNonPositiveAmount = errors.New("config: position amount must be positive")
	ErrNonPositiveProfit = errors.New("config: profit per trade must be positive")
	ErrInvalidFeeRate    = errors.New("config: fee rate must be in [0, 0.05)")
	ErrInvalidMaxHold    = errors.New("config: max hold must be positive")
)

// Validate checks the config's thresholds. A session refuses to start on any
// violation and stays Idle.
func (c SessionConfig) Validate() error {
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	if c.PositionAmount <= 0 {
		return ErrNonPositiveAmount
	}
	if c.ProfitPerTrade <= 0 || c.MinNetProfit <= 0 {
		return ErrNonPositiveProfit
	}
	if c.FeeRate < 0 || c.FeeRate >= 0.05 {
		return ErrInvalidFeeRate
	}
	if c.MaxHold <= 0 {
		return ErrInvalidMaxHold
	}
	if c.MinNetProfit > c.ProfitPerTrade {
		return fmt.Errorf("config: min net profit %.4f exceeds profit per trade %.4f",
			c.MinNetProfit, c.ProfitPerTrade)
	}
	return nil
}

// RunningTotals accumulates over all recorded trades of a session. Stop
// preserves them across restarts; only Reset zeroes them.
type RunningTotals struct {
	CumulativeNetPnl float64
	TradesExecuted   int
	WinsCount        int
	MaxDrawdown      float64 // most negative dip from peak cumulative PnL (<= 0)
}

// SessionHitRate is wins over executed trades, 0 when no trades exist.
func (t RunningTotals) SessionHitRate() float64 {
	if t.TradesExecuted == 0 {
		return 0
	}
	return float64(t.WinsCount) / float64(t.TradesExecuted)
}

// VaultEntry is one credit into the profit vault. The trading loop only ever
// adds entries; debits are outside the engine entirely.
type VaultEntry struct {
	At     time.Time
	Amount float64
	TradeID string
}
