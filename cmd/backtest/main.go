// Package main replays recorded price tapes through the engine and prints
// the resulting session report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"scalp-engine/internal/backtest"
	"scalp-engine/internal/config"
	"scalp-engine/internal/reporting"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	tapePath := flag.String("tape", "", "Path to JSON tape file: {\"SYMBOL\": [price, ...]}")
	initialBalance := flag.Float64("initial-balance", 1000, "Starting paper balance (quote currency)")
	maxTrades := flag.Int("max-trades", 0, "Stop after this many recorded trades (0 = run the tape out)")
	csvOut := flag.Bool("csv", false, "Print per-symbol metrics as CSV instead of Markdown")
	flag.Parse()

	if *tapePath == "" {
		fmt.Fprintln(os.Stderr, "--tape is required")
		os.Exit(1)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	tapes, err := loadTapes(*tapePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tape: %v\n", err)
		os.Exit(1)
	}

	// The backtest replays the first configured session against the tape.
	spec := cfg.Sessions[0]
	res, err := backtest.Run(context.Background(), backtest.Options{
		Config:         spec.SessionConfig(),
		Trailing:       spec.TrailingConfig(),
		Tapes:          tapes,
		InitialBalance: *initialBalance,
		MaxTrades:      *maxTrades,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}

	if *csvOut {
		fmt.Print(reporting.RenderCSV(res.Report.SymbolMetrics))
		return
	}
	fmt.Print(reporting.RenderMarkdown(res.Report))
}

func loadTapes(path string) (map[string][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tapes map[string][]float64
	if err := json.Unmarshal(data, &tapes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(tapes) == 0 {
		return nil, fmt.Errorf("%s contains no tapes", path)
	}
	return tapes, nil
}
