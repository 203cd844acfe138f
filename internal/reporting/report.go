package reporting

import "time"

// Report is a point-in-time summary of one session's recorded history.
type Report struct {
	GeneratedAt time.Time
	SessionID   string

	Summary       SessionSummary
	SymbolMetrics []SymbolMetricRow
	ExitBreakdown []ExitReasonRow
	AuditHistory  []AuditHistoryRow
}

// SessionSummary aggregates the full ledger.
type SessionSummary struct {
	TotalTrades  int
	Wins         int
	HitRate      float64
	GrossProfit  float64
	TotalFees    float64
	NetProfit    float64
	AvgNetPerWin float64
	AvgHoldMs    float64
	FirstTradeAt int64 // Unix ms, 0 when no trades
	LastTradeAt  int64 // Unix ms, 0 when no trades
}

// SymbolMetricRow is one row in the per-symbol metrics table.
type SymbolMetricRow struct {
	Symbol      string
	Trades      int
	Wins        int
	HitRate     float64
	LongTrades  int
	ShortTrades int
	NetProfit   float64
	AvgHoldMs   float64
}

// ExitReasonRow counts trades by exit reason.
type ExitReasonRow struct {
	Reason    string
	Trades    int
	NetProfit float64
}

// AuditHistoryRow is one verification snapshot in the audit trail.
type AuditHistoryRow struct {
	ReportNumber     int
	GeneratedAt      time.Time
	WindowTradeCount int
	RollingHitRate   float64
	SpeedMode        string
	CooldownMs       int64
	FailedChecks     int
	Summary          string
}
