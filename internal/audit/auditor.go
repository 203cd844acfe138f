// Package audit verifies the engine's accounting invariants. An auditor run
// evaluates every check independently and reports per-check verdicts; one
// failure never masks another.
package audit

import (
	"fmt"
	"math"
	"time"

	"scalp-engine/internal/cooldown"
	"scalp-engine/internal/domain"
	"scalp-engine/internal/idhash"
)

// tolerance for float accounting comparisons.
const epsilon = 1e-6

// Input is a self-contained snapshot of session state to verify. The auditor
// never reaches back into live state; the session assembles the snapshot
// under its own lock.
type Input struct {
	SessionID     string
	ReportNumber  int
	GeneratedAtMs int64

	BalanceFloor   float64
	CurrentBalance float64

	VaultedProfit float64
	VaultEntries  []domain.VaultEntry

	Records []*domain.TradeRecord
	Totals  domain.RunningTotals

	MinNetProfit float64

	WindowSize     int
	RollingHitRate float64
	LiveMode       domain.SpeedMode
	LiveCooldownMs int64
}

// Auditor runs invariant checks over session snapshots.
type Auditor struct{}

// New creates an Auditor.
func New() *Auditor {
	return &Auditor{}
}

// Run evaluates all six invariants against the snapshot and assembles the
// report. It never fails; a broken invariant is a finding, not an error.
func (a *Auditor) Run(in Input) *domain.AuditReport {
	results := []domain.InvariantResult{
		a.checkBalanceFloor(in),
		a.checkNoProfitReuse(in),
		a.checkProfitSegregation(in),
		a.checkMinProfitEnforced(in),
		a.checkDirectionSymmetry(in),
		a.checkSpeedModeCorrectness(in),
	}

	report := &domain.AuditReport{
		ReportID:         idhash.ComputeReportID(in.SessionID, in.ReportNumber, in.GeneratedAtMs),
		SessionID:        in.SessionID,
		ReportNumber:     in.ReportNumber,
		GeneratedAt:      time.UnixMilli(in.GeneratedAtMs).UTC(),
		WindowTradeCount: in.WindowSize,
		RollingHitRate:   in.RollingHitRate,
		SessionHitRate:   in.Totals.SessionHitRate(),
		SpeedMode:        in.LiveMode,
		CooldownMs:       in.LiveCooldownMs,
		InvariantResults: results,
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed == 0 {
		report.Summary = fmt.Sprintf("report #%d: all %d invariants passed over %d trades",
			in.ReportNumber, len(results), len(in.Records))
	} else {
		report.Summary = fmt.Sprintf("report #%d: %d of %d invariants FAILED over %d trades",
			in.ReportNumber, failed, len(results), len(in.Records))
	}
	return report
}

// checkBalanceFloor: the reported balance plus the vaulted profit never dips
// below the floor captured at first start. The vault term covers balance
// models that sweep profits out of the trading account.
func (a *Auditor) checkBalanceFloor(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantBalanceFloor}
	covered := in.CurrentBalance + in.VaultedProfit
	if covered+epsilon >= in.BalanceFloor {
		res.Passed = true
		res.Detail = fmt.Sprintf("balance %.8f + vault %.8f >= floor %.8f",
			in.CurrentBalance, in.VaultedProfit, in.BalanceFloor)
	} else {
		res.Detail = fmt.Sprintf("balance %.8f + vault %.8f below floor %.8f",
			in.CurrentBalance, in.VaultedProfit, in.BalanceFloor)
	}
	return res
}

// checkNoProfitReuse: every trade was sized from the floor, never from a
// balance inflated by prior profits.
func (a *Auditor) checkNoProfitReuse(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantNoProfitReuse}
	for _, t := range in.Records {
		if math.Abs(t.SizingBasis-in.BalanceFloor) > epsilon {
			res.Detail = fmt.Sprintf("trade seq %d sized from %.8f, floor is %.8f",
				t.Sequence, t.SizingBasis, in.BalanceFloor)
			return res
		}
	}
	res.Passed = true
	res.Detail = fmt.Sprintf("all %d trades sized from floor %.8f", len(in.Records), in.BalanceFloor)
	return res
}

// checkProfitSegregation: the vault total equals both the sum of its entries
// and the ledger's cumulative net profit.
func (a *Auditor) checkProfitSegregation(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantProfitSegregation}

	var entrySum float64
	for _, e := range in.VaultEntries {
		entrySum += e.Amount
	}
	var ledgerSum float64
	for _, t := range in.Records {
		ledgerSum += t.NetProfit
	}

	if math.Abs(in.VaultedProfit-entrySum) > epsilon {
		res.Detail = fmt.Sprintf("vault total %.8f does not match entry sum %.8f", in.VaultedProfit, entrySum)
		return res
	}
	if math.Abs(in.VaultedProfit-ledgerSum) > epsilon {
		res.Detail = fmt.Sprintf("vault total %.8f does not match ledger net %.8f", in.VaultedProfit, ledgerSum)
		return res
	}
	res.Passed = true
	res.Detail = fmt.Sprintf("vault %.8f == %d entries == ledger net", in.VaultedProfit, len(in.VaultEntries))
	return res
}

// checkMinProfitEnforced: every ledger entry is a win clearing the minimum
// net profit. The ledger records no losses.
func (a *Auditor) checkMinProfitEnforced(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantMinProfitEnforced}
	for _, t := range in.Records {
		if !t.IsWin || t.NetProfit+epsilon < in.MinNetProfit {
			res.Detail = fmt.Sprintf("trade seq %d net %.8f below minimum %.8f (win=%v)",
				t.Sequence, t.NetProfit, in.MinNetProfit, t.IsWin)
			return res
		}
	}
	res.Passed = true
	res.Detail = fmt.Sprintf("all %d trades cleared minimum net %.8f", len(in.Records), in.MinNetProfit)
	return res
}

// directionSampleFloor is the trade count past which a single-direction
// ledger is bias, not small-sample noise.
const directionSampleFloor = 10

// checkDirectionSymmetry: profits reconcile with the direction formula for
// every trade, and once enough trades exist both directions appear in the
// ledger. An engine that only ever wins long is cherry-picking its signal.
func (a *Auditor) checkDirectionSymmetry(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantDirectionSymmetry}

	var longs, shorts int
	for _, t := range in.Records {
		switch t.Direction {
		case domain.DirectionLong:
			longs++
		case domain.DirectionShort:
			shorts++
		}

		diff := t.ExitPrice - t.EntryPrice
		if t.Direction == domain.DirectionShort {
			diff = -diff
		}
		expectedGross := diff * t.PositionSize
		if math.Abs(expectedGross-t.GrossProfit) > epsilon {
			res.Detail = fmt.Sprintf("trade seq %d (%s): gross %.8f, entry/exit imply %.8f",
				t.Sequence, t.Direction, t.GrossProfit, expectedGross)
			return res
		}
		if math.Abs(t.GrossProfit-t.Fees-t.NetProfit) > epsilon {
			res.Detail = fmt.Sprintf("trade seq %d: net %.8f != gross %.8f - fees %.8f",
				t.Sequence, t.NetProfit, t.GrossProfit, t.Fees)
			return res
		}
	}

	if len(in.Records) >= directionSampleFloor && (longs == 0 || shorts == 0) {
		res.Detail = fmt.Sprintf("%d trades, %d long / %d short: one direction never recorded",
			len(in.Records), longs, shorts)
		return res
	}

	res.Passed = true
	res.Detail = fmt.Sprintf("%d trades reconcile, %d long / %d short", len(in.Records), longs, shorts)
	return res
}

// checkSpeedModeCorrectness: the live mode matches the window's hit rate per
// the fixed thresholds, and the live cooldown matches the mode. Below the
// sample floor any mode is acceptable.
func (a *Auditor) checkSpeedModeCorrectness(in Input) domain.InvariantResult {
	res := domain.InvariantResult{Name: domain.InvariantSpeedModeCorrect}

	if in.WindowSize >= cooldown.MinSamples {
		expected := cooldown.ModeForHitRate(in.RollingHitRate)
		if in.LiveMode != expected {
			res.Detail = fmt.Sprintf("mode %s, hit rate %.4f over %d trades demands %s",
				in.LiveMode, in.RollingHitRate, in.WindowSize, expected)
			return res
		}
	}

	if want := domain.CooldownFor(in.LiveMode).Milliseconds(); in.LiveCooldownMs != want {
		res.Detail = fmt.Sprintf("cooldown %dms does not match mode %s (%dms)",
			in.LiveCooldownMs, in.LiveMode, want)
		return res
	}

	res.Passed = true
	res.Detail = fmt.Sprintf("mode %s consistent with hit rate %.4f over %d trades",
		in.LiveMode, in.RollingHitRate, in.WindowSize)
	return res
}
