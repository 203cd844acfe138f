// Package backtest replays recorded price tapes through a full session,
// producing the same ledger, audit trail, and report a live run would.
package backtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/execution"
	"scalp-engine/internal/feed"
	"scalp-engine/internal/profitlock"
	"scalp-engine/internal/reporting"
	"scalp-engine/internal/session"
	"scalp-engine/internal/signal"
	"scalp-engine/internal/storage/memory"
)

// DefaultMaxCycles bounds the loop when a tape never produces enough
// recorded trades to hit MaxTrades.
const DefaultMaxCycles = 10_000

// Options configures one backtest run.
type Options struct {
	Config   domain.SessionConfig
	Trailing profitlock.TrailingConfig

	// Tapes holds one recorded price tape per symbol. Non-positive ticks
	// replay as feed gaps.
	Tapes map[string][]float64

	// InitialBalance seeds the paper account; it becomes the balance floor.
	InitialBalance float64

	// MaxTrades stops the session after this many recorded trades.
	// Zero means run until MaxCycles.
	MaxTrades int

	// MaxCycles bounds total loop iterations. Defaults to DefaultMaxCycles.
	MaxCycles int

	// Start anchors virtual time. Defaults to a fixed epoch so identical
	// tapes produce identical trade IDs.
	Start time.Time

	Logger *zerolog.Logger
}

// Results holds the backtest output.
type Results struct {
	SessionID string
	Snapshot  session.Snapshot
	Records   []*domain.TradeRecord
	Report    *reporting.Report
}

// vclock is a virtual clock: Sleep advances time instead of waiting, so a
// backtest runs as fast as the tape allows while hold times stay realistic.
type vclock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *vclock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *vclock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Run executes one session over the tapes and reports on the result.
func Run(ctx context.Context, opts Options) (*Results, error) {
	if len(opts.Tapes) == 0 {
		return nil, errors.New("backtest: at least one tape is required")
	}
	if opts.InitialBalance <= 0 {
		return nil, errors.New("backtest: initial balance must be positive")
	}

	maxCycles := opts.MaxCycles
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Unix(1_600_000_000, 0).UTC()
	}

	clock := &vclock{t: start}

	trades := memory.NewTradeRecordStore()
	reports := memory.NewAuditReportStore()
	balances := execution.NewPaperBalance()
	balances.Set("backtest", opts.InitialBalance)

	var sess *session.Session

	// Every loop iteration ends in one Sleep, so counting sleeps bounds
	// the run.
	var cycleMu sync.Mutex
	cycles := 0
	sleep := func(d time.Duration) {
		clock.Sleep(d)
		cycleMu.Lock()
		cycles++
		over := cycles >= maxCycles
		cycleMu.Unlock()
		if over && sess != nil {
			_ = sess.Stop()
		}
	}

	bus := session.NewBus()
	recorded := 0
	bus.Subscribe(func(ev domain.Event) {
		if ev.Type != domain.EventTradeRecorded || ev.Trade == nil {
			return
		}
		balances.Credit("backtest", ev.Trade.NetProfit)
		recorded++
		if opts.MaxTrades > 0 && recorded >= opts.MaxTrades {
			_ = sess.Stop()
		}
	})

	sess, err := session.New(session.Options{
		Account:  "backtest",
		Exchange: "backtest",
		Mode:     domain.SessionModeDemo,
		Config:   opts.Config,
		Trailing: opts.Trailing,
		Signals:  signal.NewRoundRobin(),
		Exec:     execution.NewPaperService(execution.PaperOptions{Now: clock.Now}),
		Prices:   feed.NewReplay(opts.Tapes),
		Balances: balances,
		Trades:   trades,
		Reports:  reports,
		Bus:      bus,
		Logger:   opts.Logger,
		Now:      clock.Now,
		Sleep:    sleep,
	})
	if err != nil {
		return nil, err
	}

	if err := sess.Start(ctx); err != nil {
		return nil, err
	}
	<-sess.Done()

	report, err := reporting.NewGenerator(trades, reports).
		WithClock(clock.Now).
		Generate(ctx, sess.ID())
	if err != nil {
		return nil, err
	}

	return &Results{
		SessionID: sess.ID(),
		Snapshot:  sess.Snapshot(),
		Records:   sess.Records(),
		Report:    report,
	}, nil
}
