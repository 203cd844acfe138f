// Package profitlock resolves open positions. The monitor polls the price
// and exits on the first condition that fires, checked in a fixed order each
// tick: cancellation, hold timeout, take-profit (plain or trailing), then
// stop-loss. One position resolves to exactly one exit.
package profitlock

import (
	"context"
	"time"

	"scalp-engine/internal/domain"
)

// MaxConsecutiveGaps is how many poll ticks in a row the price feed may fail
// before the position is force-closed at the last known price.
const MaxConsecutiveGaps = 5

// TrailingConfig arms a trailing lock once the move reaches TriggerPct.
// After arming, the position exits as soon as the move gives back enough to
// touch LockFraction of the peak move.
type TrailingConfig struct {
	Enabled      bool
	TriggerPct   float64 // percent move that arms the trail
	LockFraction float64 // share of peak move to keep, in (0, 1)
}

// Params describes one position to watch. Percent fields are percent units:
// 0.5 means 0.5%.
type Params struct {
	Symbol    string
	Direction domain.Direction

	EntryPrice   float64
	PositionSize float64 // base units

	TakeProfitPct float64
	StopLossPct   float64
	MaxHold       time.Duration
	PollInterval  time.Duration

	FeeRate  float64 // taker fee per side, as a fraction
	Trailing TrailingConfig
}

// Result is the resolution of a watched position.
type Result struct {
	ExitPrice   float64
	ExitReason  string
	HoldTime    time.Duration
	GrossProfit float64
	Fees        float64
	NetProfit   float64

	// MaxMovePct is the best favorable move seen, in percent units.
	MaxMovePct float64
}

// PriceFunc returns the current price. ok is false on a feed gap.
type PriceFunc func() (price float64, ok bool)

// CancelFunc reports whether the position should be abandoned. May be nil.
type CancelFunc func() bool

// Monitor watches positions until resolution. The zero value is not usable;
// construct with New.
type Monitor struct {
	now   func() time.Time
	sleep func(time.Duration)

	maxGaps int
}

// Options configures a Monitor.
type Options struct {
	// Now overrides the clock, for tests.
	Now func() time.Time

	// Sleep overrides the inter-tick wait, for tests.
	Sleep func(time.Duration)

	// MaxConsecutiveGaps overrides the feed-gap bound. Defaults to
	// MaxConsecutiveGaps.
	MaxConsecutiveGaps int
}

// New creates a Monitor.
func New(opts Options) *Monitor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	maxGaps := opts.MaxConsecutiveGaps
	if maxGaps <= 0 {
		maxGaps = MaxConsecutiveGaps
	}
	return &Monitor{now: now, sleep: sleep, maxGaps: maxGaps}
}

// Watch polls until the position resolves and returns the resolution.
// Context cancellation resolves the position as CANCELLED at the last known
// price; Watch never blocks past it by more than one tick.
func (m *Monitor) Watch(ctx context.Context, p Params, price PriceFunc, cancelled CancelFunc) Result {
	start := m.now()
	deadline := start.Add(p.MaxHold)

	last := p.EntryPrice
	peakMove := 0.0
	trailArmed := false
	gaps := 0

	for {
		now := m.now()

		if ctx.Err() != nil || (cancelled != nil && cancelled()) {
			// A cancelled position is abandoned, not settled: no gross,
			// no fees, no net.
			return Result{
				ExitPrice:  last,
				ExitReason: domain.ExitReasonCancelled,
				HoldTime:   now.Sub(start),
				MaxMovePct: peakMove,
			}
		}

		if !now.Before(deadline) {
			return m.resolve(p, last, domain.ExitReasonTimeOut, now.Sub(start), peakMove)
		}

		cur, ok := price()
		if !ok {
			gaps++
			if gaps >= m.maxGaps {
				return m.resolve(p, last, domain.ExitReasonTimeOut, now.Sub(start), peakMove)
			}
			m.sleep(p.PollInterval)
			continue
		}
		gaps = 0
		last = cur

		move := favorableMovePct(p.Direction, p.EntryPrice, cur)
		if move > peakMove {
			peakMove = move
		}
		if p.Trailing.Enabled && peakMove >= p.Trailing.TriggerPct {
			trailArmed = true
		}

		if move >= p.TakeProfitPct {
			return m.resolve(p, cur, domain.ExitReasonTakeProfit, now.Sub(start), peakMove)
		}
		if trailArmed && move <= peakMove*p.Trailing.LockFraction {
			return m.resolve(p, cur, domain.ExitReasonTakeProfit, now.Sub(start), peakMove)
		}
		if move <= -p.StopLossPct {
			return m.resolve(p, cur, domain.ExitReasonStopLoss, now.Sub(start), peakMove)
		}

		m.sleep(p.PollInterval)
	}
}

func (m *Monitor) resolve(p Params, exitPrice float64, reason string, held time.Duration, peakMove float64) Result {
	gross := grossProfit(p.Direction, p.EntryPrice, exitPrice, p.PositionSize)
	fees := p.FeeRate * (p.EntryPrice + exitPrice) * p.PositionSize
	return Result{
		ExitPrice:   exitPrice,
		ExitReason:  reason,
		HoldTime:    held,
		GrossProfit: gross,
		Fees:        fees,
		NetProfit:   gross - fees,
		MaxMovePct:  peakMove,
	}
}

// favorableMovePct is the percent move in the position's favor: positive is
// profit for either direction.
func favorableMovePct(d domain.Direction, entry, cur float64) float64 {
	if entry == 0 {
		return 0
	}
	pct := (cur - entry) / entry * 100
	if d == domain.DirectionShort {
		pct = -pct
	}
	return pct
}

func grossProfit(d domain.Direction, entry, exit, size float64) float64 {
	diff := exit - entry
	if d == domain.DirectionShort {
		diff = -diff
	}
	return diff * size
}
