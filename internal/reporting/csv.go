package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders per-symbol metrics as a CSV string.
func RenderCSV(metrics []SymbolMetricRow) string {
	var sb strings.Builder

	sb.WriteString("symbol,trades,wins,hit_rate,long_trades,short_trades,net_profit,avg_hold_ms\n")

	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.6f,%d,%d,%.6f,%.0f\n",
			m.Symbol,
			m.Trades,
			m.Wins,
			m.HitRate,
			m.LongTrades,
			m.ShortTrades,
			m.NetProfit,
			m.AvgHoldMs,
		))
	}

	return sb.String()
}

// RenderAuditCSV renders the audit history as a CSV string.
func RenderAuditCSV(history []AuditHistoryRow) string {
	var sb strings.Builder

	sb.WriteString("report_number,generated_at,window_trades,rolling_hit_rate,speed_mode,cooldown_ms,failed_checks\n")

	for _, a := range history {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%.6f,%s,%d,%d\n",
			a.ReportNumber,
			a.GeneratedAt.Format(time.RFC3339),
			a.WindowTradeCount,
			a.RollingHitRate,
			a.SpeedMode,
			a.CooldownMs,
			a.FailedChecks,
		))
	}

	return sb.String()
}
