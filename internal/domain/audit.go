package domain

import "time"

// Invariant names checked by the auditor. Each is reported independently;
// a report never collapses them into a single boolean.
const (
	InvariantBalanceFloor      = "balance_floor"
	InvariantNoProfitReuse     = "no_profit_reuse"
	InvariantProfitSegregation = "profit_segregation"
	InvariantMinProfitEnforced = "min_profit_enforced"
	InvariantDirectionSymmetry = "direction_symmetry"
	InvariantSpeedModeCorrect  = "speed_mode_correctness"
)

// InvariantResult is a single PASS/FAIL verdict with a human-readable detail.
type InvariantResult struct {
	Name   string
	Passed bool
	Detail string
}

// AuditReport is a point-in-time verification snapshot, produced every 20
// recorded trades. Immutable once created; retained in an append-only history.
type AuditReport struct {
	ReportID     string
	SessionID    string
	ReportNumber int
	GeneratedAt  time.Time

	WindowTradeCount int
	RollingHitRate   float64
	SessionHitRate   float64

	SpeedMode  SpeedMode
	CooldownMs int64

	InvariantResults []InvariantResult
	Summary          string
}

// AllPassed reports whether every invariant in the report passed.
func (r *AuditReport) AllPassed() bool {
	for _, res := range r.InvariantResults {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the results that did not pass.
func (r *AuditReport) Failed() []InvariantResult {
	var failed []InvariantResult
	for _, res := range r.InvariantResults {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}
