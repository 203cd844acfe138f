package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Session: %s\n\n", r.SessionID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", r.Summary.Wins))
	sb.WriteString(fmt.Sprintf("| Hit Rate | %.4f |\n", r.Summary.HitRate))
	sb.WriteString(fmt.Sprintf("| Gross Profit | %.6f |\n", r.Summary.GrossProfit))
	sb.WriteString(fmt.Sprintf("| Total Fees | %.6f |\n", r.Summary.TotalFees))
	sb.WriteString(fmt.Sprintf("| Net Profit | %.6f |\n", r.Summary.NetProfit))
	sb.WriteString(fmt.Sprintf("| Avg Net Per Win | %.6f |\n", r.Summary.AvgNetPerWin))
	sb.WriteString(fmt.Sprintf("| Avg Hold (ms) | %.0f |\n", r.Summary.AvgHoldMs))
	sb.WriteString(fmt.Sprintf("| First Trade (ms) | %d |\n", r.Summary.FirstTradeAt))
	sb.WriteString(fmt.Sprintf("| Last Trade (ms) | %d |\n", r.Summary.LastTradeAt))
	sb.WriteString("\n")

	sb.WriteString("## Per-Symbol Metrics\n\n")
	if len(r.SymbolMetrics) > 0 {
		sb.WriteString("| Symbol | Trades | Wins | HitRate | Long | Short | Net | AvgHold(ms) |\n")
		sb.WriteString("|--------|--------|------|---------|------|-------|-----|-------------|\n")
		for _, m := range r.SymbolMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f | %d | %d | %.6f | %.0f |\n",
				m.Symbol, m.Trades, m.Wins, m.HitRate,
				m.LongTrades, m.ShortTrades, m.NetProfit, m.AvgHoldMs))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Exit Reasons\n\n")
	if len(r.ExitBreakdown) > 0 {
		sb.WriteString("| Reason | Trades | Net |\n")
		sb.WriteString("|--------|--------|-----|\n")
		for _, e := range r.ExitBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.6f |\n", e.Reason, e.Trades, e.NetProfit))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Audit History\n\n")
	if len(r.AuditHistory) > 0 {
		sb.WriteString("| # | Generated | Window | RollingHitRate | Mode | Cooldown(ms) | Failed | Summary |\n")
		sb.WriteString("|---|-----------|--------|----------------|------|--------------|--------|--------|\n")
		for _, a := range r.AuditHistory {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.4f | %s | %d | %d | %s |\n",
				a.ReportNumber, a.GeneratedAt.Format(time.RFC3339),
				a.WindowTradeCount, a.RollingHitRate, a.SpeedMode,
				a.CooldownMs, a.FailedChecks, a.Summary))
		}
	} else {
		sb.WriteString("No audit reports generated.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
