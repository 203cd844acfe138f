package profitlock

import (
	"context"
	"testing"
	"time"

	"scalp-engine/internal/domain"
)

// harness drives the monitor with a scripted price tape and a clock that
// advances on every sleep.
type harness struct {
	t     time.Time
	tape  []float64 // price per tick; negative values are feed gaps
	index int
}

func newHarness(tape []float64) *harness {
	return &harness{t: time.UnixMilli(1_700_000_000_000).UTC(), tape: tape}
}

func (h *harness) now() time.Time { return h.t }

func (h *harness) sleep(d time.Duration) { h.t = h.t.Add(d) }

func (h *harness) price() (float64, bool) {
	if h.index >= len(h.tape) {
		return 0, false
	}
	p := h.tape[h.index]
	h.index++
	if p < 0 {
		return 0, false
	}
	return p, true
}

func baseParams() Params {
	return Params{
		Symbol:        "BTCUSDT",
		Direction:     domain.DirectionLong,
		EntryPrice:    100.0,
		PositionSize:  2.0,
		TakeProfitPct: 0.5,
		StopLossPct:   0.1,
		MaxHold:       30 * time.Second,
		PollInterval:  time.Second,
		FeeRate:       0.001,
	}
}

func watch(t *testing.T, p Params, tape []float64) Result {
	t.Helper()
	h := newHarness(tape)
	m := New(Options{Now: h.now, Sleep: h.sleep})
	return m.Watch(context.Background(), p, h.price, nil)
}

func TestWatch_TakeProfitLong(t *testing.T) {
	// Entry 100, TP at +0.5% = 100.5.
	res := watch(t, baseParams(), []float64{100.1, 100.3, 100.6})

	if res.ExitReason != domain.ExitReasonTakeProfit {
		t.Fatalf("ExitReason = %s, want TAKE_PROFIT", res.ExitReason)
	}
	if res.ExitPrice != 100.6 {
		t.Errorf("ExitPrice = %f, want 100.6", res.ExitPrice)
	}

	// gross = (100.6 - 100) * 2 = 1.2
	// fees  = 0.001 * (100 + 100.6) * 2 = 0.4012
	if got, want := res.GrossProfit, 1.2; !near(got, want) {
		t.Errorf("GrossProfit = %f, want %f", got, want)
	}
	if got, want := res.Fees, 0.4012; !near(got, want) {
		t.Errorf("Fees = %f, want %f", got, want)
	}
	if got, want := res.NetProfit, 1.2-0.4012; !near(got, want) {
		t.Errorf("NetProfit = %f, want %f", got, want)
	}
}

func TestWatch_TakeProfitShort(t *testing.T) {
	p := baseParams()
	p.Direction = domain.DirectionShort

	// Short profits on the way down: -0.6% move.
	res := watch(t, p, []float64{99.9, 99.4})

	if res.ExitReason != domain.ExitReasonTakeProfit {
		t.Fatalf("ExitReason = %s, want TAKE_PROFIT", res.ExitReason)
	}
	// gross = (100 - 99.4) * 2 = 1.2, same magnitude as the long mirror.
	if got, want := res.GrossProfit, 1.2; !near(got, want) {
		t.Errorf("GrossProfit = %f, want %f", got, want)
	}
}

func TestWatch_StopLossLong(t *testing.T) {
	// SL at -0.1% = 99.9.
	res := watch(t, baseParams(), []float64{100.05, 99.85})

	if res.ExitReason != domain.ExitReasonStopLoss {
		t.Fatalf("ExitReason = %s, want STOP_LOSS", res.ExitReason)
	}
	if res.NetProfit >= 0 {
		t.Errorf("NetProfit = %f, want negative", res.NetProfit)
	}
}

func TestWatch_TimeoutAtLastKnownPrice(t *testing.T) {
	p := baseParams()
	p.MaxHold = 3 * time.Second

	// Price never reaches either boundary; the hold expires.
	res := watch(t, p, []float64{100.1, 100.2, 100.15, 100.1, 100.2})

	if res.ExitReason != domain.ExitReasonTimeOut {
		t.Fatalf("ExitReason = %s, want TIME_OUT", res.ExitReason)
	}
	if res.HoldTime != 3*time.Second {
		t.Errorf("HoldTime = %s, want 3s", res.HoldTime)
	}
}

func TestWatch_FeedGapsForceTimeout(t *testing.T) {
	// One good tick, then nothing but gaps. The bound trips before MaxHold.
	res := watch(t, baseParams(), []float64{100.2, -1, -1, -1, -1, -1})

	if res.ExitReason != domain.ExitReasonTimeOut {
		t.Fatalf("ExitReason = %s, want TIME_OUT", res.ExitReason)
	}
	if res.ExitPrice != 100.2 {
		t.Errorf("ExitPrice = %f, want last known price 100.2", res.ExitPrice)
	}
}

func TestWatch_GapCounterResetsOnGoodTick(t *testing.T) {
	p := baseParams()
	p.MaxHold = 20 * time.Second

	// Gaps never accumulate to the bound because good ticks intervene.
	tape := []float64{100.1, -1, -1, 100.2, -1, -1, 100.3, -1, -1, 100.6}
	res := watch(t, p, tape)

	if res.ExitReason != domain.ExitReasonTakeProfit {
		t.Fatalf("ExitReason = %s, want TAKE_PROFIT", res.ExitReason)
	}
}

func TestWatch_CancelWinsOverEverything(t *testing.T) {
	h := newHarness([]float64{100.6})
	m := New(Options{Now: h.now, Sleep: h.sleep})

	// Cancelled before the first tick ever reads a price.
	res := m.Watch(context.Background(), baseParams(), h.price, func() bool { return true })

	if res.ExitReason != domain.ExitReasonCancelled {
		t.Fatalf("ExitReason = %s, want CANCELLED", res.ExitReason)
	}
	if res.ExitPrice != 100.0 {
		t.Errorf("ExitPrice = %f, want entry price", res.ExitPrice)
	}
	// An abandoned position settles flat; no fees are booked against it.
	if res.GrossProfit != 0 || res.Fees != 0 || res.NetProfit != 0 {
		t.Errorf("Cancelled exit carries P&L: gross %f, fees %f, net %f",
			res.GrossProfit, res.Fees, res.NetProfit)
	}
}

func TestWatch_ContextCancellation(t *testing.T) {
	h := newHarness([]float64{100.1, 100.2})
	m := New(Options{Now: h.now, Sleep: h.sleep})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := m.Watch(ctx, baseParams(), h.price, nil)
	if res.ExitReason != domain.ExitReasonCancelled {
		t.Fatalf("ExitReason = %s, want CANCELLED", res.ExitReason)
	}
	if res.NetProfit != 0 {
		t.Errorf("NetProfit = %f, want 0 for a cancelled position", res.NetProfit)
	}
}

func TestWatch_TrailingLocksProfit(t *testing.T) {
	p := baseParams()
	p.TakeProfitPct = 1.0
	p.Trailing = TrailingConfig{Enabled: true, TriggerPct: 0.3, LockFraction: 0.5}

	// Peaks at +0.4% (armed past 0.3%), then gives back to +0.15%, which is
	// below half the peak, so the trail fires before plain TP or SL.
	res := watch(t, p, []float64{100.2, 100.4, 100.15})

	if res.ExitReason != domain.ExitReasonTakeProfit {
		t.Fatalf("ExitReason = %s, want TAKE_PROFIT (trailing)", res.ExitReason)
	}
	if res.ExitPrice != 100.15 {
		t.Errorf("ExitPrice = %f, want 100.15", res.ExitPrice)
	}
	if got, want := res.MaxMovePct, 0.4; !near(got, want) {
		t.Errorf("MaxMovePct = %f, want %f", got, want)
	}
}

func TestWatch_TrailingNotArmedBelowTrigger(t *testing.T) {
	p := baseParams()
	p.TakeProfitPct = 1.0
	p.StopLossPct = 0.3
	p.MaxHold = 4 * time.Second
	p.Trailing = TrailingConfig{Enabled: true, TriggerPct: 0.5, LockFraction: 0.5}

	// Peak +0.2% never reaches the 0.5% trigger; giving it all back must not
	// fire the trail.
	res := watch(t, p, []float64{100.1, 100.2, 100.0, 100.1})

	if res.ExitReason != domain.ExitReasonTimeOut {
		t.Fatalf("ExitReason = %s, want TIME_OUT", res.ExitReason)
	}
}

func near(got, want float64) bool {
	const eps = 1e-9
	diff := got - want
	return diff < eps && diff > -eps
}
