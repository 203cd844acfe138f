package reporting

import (
	"context"
	"sort"
	"time"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

// Generator produces session reports from stored data.
type Generator struct {
	tradeStore  storage.TradeRecordStore
	reportStore storage.AuditReportStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(trades storage.TradeRecordStore, reports storage.AuditReportStore) *Generator {
	return &Generator{
		tradeStore:  trades,
		reportStore: reports,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one session. An empty ledger is
// not an error; the report simply carries zero rows.
func (g *Generator) Generate(ctx context.Context, sessionID string) (*Report, error) {
	trades, err := g.tradeStore.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	audits, err := g.reportStore.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:   g.now(),
		SessionID:     sessionID,
		Summary:       buildSummary(trades),
		SymbolMetrics: buildSymbolMetrics(trades),
		ExitBreakdown: buildExitBreakdown(trades),
		AuditHistory:  buildAuditHistory(audits),
	}, nil
}

func buildSummary(trades []*domain.TradeRecord) SessionSummary {
	var s SessionSummary
	s.TotalTrades = len(trades)
	if len(trades) == 0 {
		return s
	}

	var holdSum float64
	s.FirstTradeAt = trades[0].Timestamp.UnixMilli()
	s.LastTradeAt = trades[0].Timestamp.UnixMilli()
	for _, t := range trades {
		if t.IsWin {
			s.Wins++
		}
		s.GrossProfit += t.GrossProfit
		s.TotalFees += t.Fees
		s.NetProfit += t.NetProfit
		holdSum += float64(t.HoldTimeMs)

		at := t.Timestamp.UnixMilli()
		if at < s.FirstTradeAt {
			s.FirstTradeAt = at
		}
		if at > s.LastTradeAt {
			s.LastTradeAt = at
		}
	}

	s.HitRate = float64(s.Wins) / float64(s.TotalTrades)
	s.AvgHoldMs = holdSum / float64(s.TotalTrades)
	if s.Wins > 0 {
		s.AvgNetPerWin = s.NetProfit / float64(s.Wins)
	}
	return s
}

func buildSymbolMetrics(trades []*domain.TradeRecord) []SymbolMetricRow {
	bySymbol := make(map[string]*SymbolMetricRow)
	holdSums := make(map[string]float64)

	for _, t := range trades {
		row, ok := bySymbol[t.Symbol]
		if !ok {
			row = &SymbolMetricRow{Symbol: t.Symbol}
			bySymbol[t.Symbol] = row
		}
		row.Trades++
		if t.IsWin {
			row.Wins++
		}
		if t.Direction == domain.DirectionLong {
			row.LongTrades++
		} else {
			row.ShortTrades++
		}
		row.NetProfit += t.NetProfit
		holdSums[t.Symbol] += float64(t.HoldTimeMs)
	}

	rows := make([]SymbolMetricRow, 0, len(bySymbol))
	for sym, row := range bySymbol {
		row.HitRate = float64(row.Wins) / float64(row.Trades)
		row.AvgHoldMs = holdSums[sym] / float64(row.Trades)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}

func buildExitBreakdown(trades []*domain.TradeRecord) []ExitReasonRow {
	byReason := make(map[string]*ExitReasonRow)
	for _, t := range trades {
		row, ok := byReason[t.ExitReason]
		if !ok {
			row = &ExitReasonRow{Reason: t.ExitReason}
			byReason[t.ExitReason] = row
		}
		row.Trades++
		row.NetProfit += t.NetProfit
	}

	rows := make([]ExitReasonRow, 0, len(byReason))
	for _, row := range byReason {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Reason < rows[j].Reason })
	return rows
}

func buildAuditHistory(audits []*domain.AuditReport) []AuditHistoryRow {
	rows := make([]AuditHistoryRow, 0, len(audits))
	for _, a := range audits {
		rows = append(rows, AuditHistoryRow{
			ReportNumber:     a.ReportNumber,
			GeneratedAt:      a.GeneratedAt,
			WindowTradeCount: a.WindowTradeCount,
			RollingHitRate:   a.RollingHitRate,
			SpeedMode:        string(a.SpeedMode),
			CooldownMs:       a.CooldownMs,
			FailedChecks:     len(a.Failed()),
			Summary:          a.Summary,
		})
	}
	return rows
}
