// Package session runs the trading loop: one session owns its ledger, its
// profit vault, its cooldown controller, and its audit cadence. A session
// holds at most one open position at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scalp-engine/internal/audit"
	"scalp-engine/internal/cooldown"
	"scalp-engine/internal/domain"
	"scalp-engine/internal/execution"
	"scalp-engine/internal/feed"
	"scalp-engine/internal/idhash"
	"scalp-engine/internal/observability"
	"scalp-engine/internal/profitlock"
	"scalp-engine/internal/signal"
	"scalp-engine/internal/storage"
)

// AuditEvery is the audit cadence, in recorded trades.
const AuditEvery = 20

// Session errors.
var (
	ErrAlreadyRunning   = errors.New("session: already running")
	ErrSessionActive    = errors.New("session: reset requires a stopped or idle session")
	ErrFloorNotCaptured = errors.New("session: balance floor not captured yet")
	ErrBadAdjustment    = errors.New("session: adjustment would make the floor non-positive")
)

// Skip reasons for loop cycles that never reach an entry.
const (
	skipExecuting    = "executing"
	skipCooldown     = "cooldown"
	skipMinInterval  = "min_interval"
	skipNoCandidate  = "no_candidate"
	skipFeedError    = "feed_error"
	skipBalanceError = "balance_error"
	skipOrderError   = "order_error"
)

// BalanceSource reads the available trading balance for an account.
type BalanceSource interface {
	Available(ctx context.Context, account string) (float64, error)
}

// Session is the engine's state machine. All exported methods are safe for
// concurrent use.
type Session struct {
	id       string
	account  string
	exchange string
	mode     domain.SessionMode
	cfg      domain.SessionConfig
	trailing profitlock.TrailingConfig

	signals  signal.Source
	exec     execution.Service
	prices   feed.Source
	balances BalanceSource
	trades   storage.TradeRecordStore
	reports  storage.AuditReportStore

	controller *cooldown.Controller
	monitor    *profitlock.Monitor
	auditor    *audit.Auditor
	vault      *Vault
	bus        *Bus
	logger     zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)

	mu            sync.Mutex
	status        domain.SessionStatus
	floor         float64
	floorCaptured bool
	totals        domain.RunningTotals
	peakPnl       float64
	records       []*domain.TradeRecord
	seq           int64
	lastAttempt   time.Time
	executing     bool
	anomalies     int
	reportCount   int
	transitions   int
	cancel        context.CancelFunc
	done          chan struct{}
}

// Options for creating a Session.
type Options struct {
	// ID identifies the session. Defaults to a fresh UUID.
	ID string

	// Account is the balance account key.
	Account string

	// Exchange names the venue recorded on each trade.
	Exchange string

	// Mode selects live or demo routing. Defaults to DEMO.
	Mode domain.SessionMode

	// Config holds the trading parameters.
	Config domain.SessionConfig

	// Trailing arms the trailing profit lock on every position.
	Trailing profitlock.TrailingConfig

	// Required collaborators.
	Signals  signal.Source
	Exec     execution.Service
	Prices   feed.Source
	Balances BalanceSource
	Trades   storage.TradeRecordStore
	Reports  storage.AuditReportStore

	// Bus receives engine events. Defaults to a fresh Bus.
	Bus *Bus

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger

	// Now and Sleep override the clock, for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// New creates a Session in the Idle state.
func New(opts Options) (*Session, error) {
	if opts.Signals == nil || opts.Exec == nil || opts.Prices == nil || opts.Balances == nil {
		return nil, errors.New("session: signals, exec, prices, and balances are required")
	}
	if opts.Trades == nil || opts.Reports == nil {
		return nil, errors.New("session: trade and report stores are required")
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.SessionModeDemo
	}
	bus := opts.Bus
	if bus == nil {
		bus = NewBus()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Session{
		id:       id,
		account:  opts.Account,
		exchange: opts.Exchange,
		mode:     mode,
		cfg:      opts.Config,
		trailing: opts.Trailing,

		signals:  opts.Signals,
		exec:     opts.Exec,
		prices:   opts.Prices,
		balances: opts.Balances,
		trades:   opts.Trades,
		reports:  opts.Reports,

		controller: cooldown.New(cooldown.Options{Now: now}),
		monitor:    profitlock.New(profitlock.Options{Now: now, Sleep: sleep}),
		auditor:    audit.New(),
		vault:      NewVault(),
		bus:        bus,
		logger:     logger.With().Str("session", id).Logger(),

		now:   now,
		sleep: sleep,

		status: domain.StatusIdle,
	}, nil
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Bus returns the session's event bus.
func (s *Session) Bus() *Bus { return s.bus }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Totals returns a copy of the running totals.
func (s *Session) Totals() domain.RunningTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Floor returns the captured balance floor, 0 before first start.
func (s *Session) Floor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floor
}

// Records returns a copy of the in-memory ledger, in completion order.
func (s *Session) Records() []*domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.TradeRecord, len(s.records))
	for i, r := range s.records {
		cp := *r
		out[i] = &cp
	}
	return out
}

// Vault returns the session's profit vault.
func (s *Session) Vault() *Vault { return s.vault }

// Snapshot is the session's externally visible state.
type Snapshot struct {
	ID       string                `json:"id"`
	Status   domain.SessionStatus  `json:"status"`
	Mode     domain.SessionMode    `json:"mode"`
	Exchange string                `json:"exchange"`

	BalanceFloor  float64              `json:"balance_floor"`
	Totals        domain.RunningTotals `json:"totals"`
	VaultedProfit float64              `json:"vaulted_profit"`

	SpeedMode      domain.SpeedMode `json:"speed_mode"`
	CooldownMs     int64            `json:"cooldown_ms"`
	RollingHitRate float64          `json:"rolling_hit_rate"`
	WindowSize     int              `json:"window_size"`

	Anomalies    int `json:"anomalies_discarded"`
	AuditReports int `json:"audit_reports"`
}

// Snapshot returns the current state for status endpoints.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:            s.id,
		Status:        s.status,
		Mode:          s.mode,
		Exchange:      s.exchange,
		BalanceFloor:  s.floor,
		Totals:        s.totals,
		Anomalies:     s.anomalies,
		AuditReports:  s.reportCount,
	}
	s.mu.Unlock()

	snap.VaultedProfit = s.vault.Total()
	snap.SpeedMode = s.controller.SpeedMode()
	snap.CooldownMs = s.controller.Cooldown().Milliseconds()
	snap.RollingHitRate = s.controller.HitRate()
	snap.WindowSize = s.controller.WindowSize()
	return snap
}

// Start validates the config, captures the balance floor on first start, and
// launches the trading loop. Restarting a stopped session keeps its totals,
// ledger, and floor.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	prev := s.status
	if prev == domain.StatusStarting || prev == domain.StatusRunning || prev == domain.StatusStopping {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	if err := s.cfg.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.status = domain.StatusStarting
	needFloor := !s.floorCaptured
	s.mu.Unlock()

	if needFloor {
		bal, err := s.balances.Available(ctx, s.account)
		if err != nil {
			s.mu.Lock()
			s.status = prev
			s.mu.Unlock()
			return fmt.Errorf("capture balance floor: %w", err)
		}
		s.mu.Lock()
		s.floor = bal
		s.floorCaptured = true
		s.mu.Unlock()
		s.logger.Info().Float64("floor", bal).Msg("balance floor captured")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	// A stop issued during the startup window wins; the loop then drains
	// immediately instead of trading.
	if s.status == domain.StatusStarting {
		s.status = domain.StatusRunning
	}
	s.mu.Unlock()

	observability.DefaultMetrics.SessionsActive.Inc()
	s.publish(domain.EventSessionStarted, "session started", nil, nil)
	s.logger.Info().Str("mode", string(s.mode)).Msg("session started")

	go s.run(runCtx, done)
	return nil
}

// Stop requests a graceful stop: the current trade, if any, cancels within
// one polling tick and the session drains to Stopped. Totals are preserved.
// Safe to call from any state; a session that is already stopping or stopped
// is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusRunning, domain.StatusStarting:
		s.status = domain.StatusStopping
	case domain.StatusStopping, domain.StatusStopped, domain.StatusIdle:
		// Already stopped or never started.
	}
	return nil
}

// EmergencyStop halts immediately: the open position is abandoned to
// cancellation and the session jumps straight to Stopped. The cooldown
// window and mode survive; only the timing anchor is cleared. Safe to call
// from any state; an inactive session is a no-op.
func (s *Session) EmergencyStop() error {
	s.mu.Lock()
	switch s.status {
	case domain.StatusIdle, domain.StatusStopped:
		s.mu.Unlock()
		return nil
	}
	s.status = domain.StatusStopped
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.controller.ResetTiming()

	observability.DefaultMetrics.SessionsActive.Dec()
	s.publish(domain.EventSessionStopped, "emergency stop", nil, nil)
	s.logger.Warn().Msg("emergency stop")
	return nil
}

// Reset returns a stopped or idle session to Idle, zeroing totals, ledger,
// vault, and the captured floor. The durable stores are untouched.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusStopped && s.status != domain.StatusIdle {
		return ErrSessionActive
	}

	s.status = domain.StatusIdle
	s.floor = 0
	s.floorCaptured = false
	s.totals = domain.RunningTotals{}
	s.peakPnl = 0
	s.records = nil
	s.seq = 0
	s.lastAttempt = time.Time{}
	s.anomalies = 0
	s.reportCount = 0
	s.transitions = 0
	s.vault = NewVault()
	s.controller = cooldown.New(cooldown.Options{Now: s.now})
	return nil
}

// AdjustFloor shifts the balance floor by delta to reflect an external
// deposit or withdrawal. The floor must stay positive.
func (s *Session) AdjustFloor(delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.floorCaptured {
		return ErrFloorNotCaptured
	}
	next := s.floor + delta
	if next <= 0 {
		return ErrBadAdjustment
	}
	s.floor = next
	s.logger.Info().Float64("delta", delta).Float64("floor", next).Msg("balance floor adjusted")
	return nil
}

// Done returns a channel closed when the trading loop exits. Nil before the
// first start.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// run is the trading loop.
func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		switch s.Status() {
		case domain.StatusRunning:
			if ctx.Err() != nil {
				return
			}
			s.runCycle(ctx)
		case domain.StatusStopping:
			s.finalize("session stopped")
			return
		default:
			// Emergency stop already published its event.
			return
		}
		s.sleep(s.cfg.PollInterval)
	}
}

// finalize completes a graceful stop.
func (s *Session) finalize(msg string) {
	s.mu.Lock()
	s.status = domain.StatusStopped
	totals := s.totals
	s.mu.Unlock()

	observability.DefaultMetrics.SessionsActive.Dec()
	s.publish(domain.EventSessionStopped,
		fmt.Sprintf("%s: %d trades, net %.4f", msg, totals.TradesExecuted, totals.CumulativeNetPnl), nil, nil)
	s.logger.Info().
		Int("trades", totals.TradesExecuted).
		Float64("net_pnl", totals.CumulativeNetPnl).
		Msg(msg)
}

// runCycle makes at most one trade attempt. It returns without trading when
// a gate fails; gates are checked in a fixed order so skip metrics stay
// interpretable.
func (s *Session) runCycle(ctx context.Context) {
	s.mu.Lock()
	if s.status != domain.StatusRunning {
		s.mu.Unlock()
		return
	}
	if s.executing {
		s.mu.Unlock()
		observability.RecordSkip(s.id, skipExecuting)
		return
	}

	if s.cfg.DailyTarget > 0 && s.totals.CumulativeNetPnl >= s.cfg.DailyTarget {
		s.status = domain.StatusStopping
		s.mu.Unlock()
		s.logger.Info().Float64("target", s.cfg.DailyTarget).Msg("daily target reached")
		return
	}
	if s.cfg.DailyStopLoss > 0 && s.totals.CumulativeNetPnl <= -s.cfg.DailyStopLoss {
		s.status = domain.StatusStopping
		s.mu.Unlock()
		s.logger.Warn().Float64("stop_loss", s.cfg.DailyStopLoss).Msg("daily stop loss hit")
		return
	}

	now := s.now()
	if !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.cfg.MinInterval {
		s.mu.Unlock()
		observability.RecordSkip(s.id, skipMinInterval)
		return
	}
	floor := s.floor
	s.mu.Unlock()

	if !s.controller.CanAttempt() {
		observability.RecordSkip(s.id, skipCooldown)
		return
	}

	bal, err := s.balances.Available(ctx, s.account)
	if err != nil {
		observability.RecordSkip(s.id, skipBalanceError)
		s.logger.Error().Err(err).Msg("balance read failed")
		return
	}
	if bal < floor {
		s.haltOnFloorBreach(bal, floor)
		return
	}

	cand, err := s.signals.Next(ctx, s.cfg.Symbols)
	if err != nil {
		observability.RecordSkip(s.id, skipNoCandidate)
		s.logger.Error().Err(err).Msg("signal source failed")
		return
	}
	if cand == nil {
		observability.RecordSkip(s.id, skipNoCandidate)
		return
	}

	ref, err := s.prices.Price(ctx, cand.Symbol)
	if err != nil || ref <= 0 {
		observability.RecordSkip(s.id, skipFeedError)
		return
	}

	s.mu.Lock()
	s.executing = true
	s.lastAttempt = s.now()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.executing = false
		s.mu.Unlock()
	}()

	s.attempt(ctx, cand, ref, floor)
}

// haltOnFloorBreach is the fatal path: available balance under the floor
// means capital the engine must never touch is already gone.
func (s *Session) haltOnFloorBreach(bal, floor float64) {
	msg := fmt.Sprintf("balance %.8f below floor %.8f", bal, floor)

	s.mu.Lock()
	s.status = domain.StatusStopping
	s.mu.Unlock()

	observability.DefaultMetrics.InvariantFailures.WithLabelValues(domain.InvariantBalanceFloor).Inc()
	s.publish(domain.EventInvariantViolated, msg, nil, nil)
	s.logger.Error().Float64("balance", bal).Float64("floor", floor).Msg("balance floor breached")
}

// attempt opens a position, waits for resolution, and closes it.
func (s *Session) attempt(ctx context.Context, cand *signal.Candidate, ref, floor float64) {
	size := s.cfg.PositionAmount / ref
	started := s.now()

	entryReq := execution.OrderRequest{
		OrderID:  execution.NewOrderID(),
		Symbol:   cand.Symbol,
		Side:     execution.EntrySide(cand.Direction),
		Quantity: size,
		Price:    ref,
	}
	entry, err := s.exec.Submit(ctx, entryReq)
	if err != nil {
		observability.RecordSkip(s.id, skipOrderError)
		s.logger.Error().Err(err).Str("symbol", cand.Symbol).Msg("entry order failed")
		return
	}
	observability.RecordOrder(s.id, string(entryReq.Side))

	cycle := domain.TradeCycle{
		Symbol:        cand.Symbol,
		Direction:     cand.Direction,
		EntryPrice:    entry.FillPrice,
		PositionSize:  size,
		SizingBasis:   floor,
		TakeProfitPct: s.takeProfitPct(),
		StopLossPct:   s.stopLossPct(),
		MaxHold:       s.cfg.MaxHold,
		StartedAt:     started,
	}

	res := s.monitor.Watch(ctx, profitlock.Params{
		Symbol:        cycle.Symbol,
		Direction:     cycle.Direction,
		EntryPrice:    cycle.EntryPrice,
		PositionSize:  cycle.PositionSize,
		TakeProfitPct: cycle.TakeProfitPct,
		StopLossPct:   cycle.StopLossPct,
		MaxHold:       cycle.MaxHold,
		PollInterval:  s.cfg.PollInterval,
		FeeRate:       s.cfg.FeeRate,
		Trailing:      s.trailing,
	}, func() (float64, bool) {
		p, perr := s.prices.Price(ctx, cycle.Symbol)
		return p, perr == nil && p > 0
	}, func() bool {
		st := s.Status()
		return st == domain.StatusStopping || st == domain.StatusStopped
	})

	exitReq := execution.OrderRequest{
		OrderID:  execution.NewOrderID(),
		Symbol:   cycle.Symbol,
		Side:     execution.ExitSide(cycle.Direction),
		Quantity: size,
		Price:    res.ExitPrice,
	}
	if _, err := s.exec.Submit(ctx, exitReq); err != nil {
		s.logger.Error().Err(err).Str("symbol", cycle.Symbol).Msg("exit order failed")
		res.ExitReason = domain.ExitReasonError
	} else {
		observability.RecordOrder(s.id, string(exitReq.Side))
	}

	cycle.ExitPrice = res.ExitPrice
	cycle.ExitReason = res.ExitReason
	cycle.HoldTime = res.HoldTime
	cycle.GrossProfit = res.GrossProfit
	cycle.Fees = res.Fees
	cycle.NetProfit = res.NetProfit

	observability.RecordExit(s.id, res.ExitReason, res.HoldTime.Seconds())
	s.resolve(ctx, &cycle)
}

// resolve records a profitable cycle or discards everything else. Only
// recorded trades touch the totals, the vault, and the cooldown window.
func (s *Session) resolve(ctx context.Context, cycle *domain.TradeCycle) {
	if cycle.ExitReason == domain.ExitReasonCancelled ||
		cycle.ExitReason == domain.ExitReasonError ||
		cycle.NetProfit < s.cfg.MinNetProfit {
		s.mu.Lock()
		s.anomalies++
		s.mu.Unlock()
		observability.RecordAnomaly(s.id, cycle.ExitReason)
		s.logger.Warn().
			Str("symbol", cycle.Symbol).
			Str("exit_reason", cycle.ExitReason).
			Float64("net", cycle.NetProfit).
			Msg("cycle discarded as anomaly")
		return
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	at := s.now()
	tradeID := idhash.ComputeTradeID(s.id, cycle.Symbol, cycle.StartedAt.UnixMilli(), seq)
	trade := cycle.Record(tradeID, s.id, s.exchange, seq, at)
	s.records = append(s.records, trade)

	s.totals.CumulativeNetPnl += trade.NetProfit
	s.totals.TradesExecuted++
	s.totals.WinsCount++
	if s.totals.CumulativeNetPnl > s.peakPnl {
		s.peakPnl = s.totals.CumulativeNetPnl
	}
	if dd := s.totals.CumulativeNetPnl - s.peakPnl; dd < s.totals.MaxDrawdown {
		s.totals.MaxDrawdown = dd
	}
	totals := s.totals
	s.mu.Unlock()

	s.vault.Credit(at, trade.NetProfit, trade.TradeID)

	if err := s.trades.Insert(ctx, trade); err != nil {
		s.logger.Error().Err(err).Str("trade_id", trade.TradeID).Msg("ledger insert failed")
	}

	s.controller.RecordOutcome(trade)

	observability.RecordTrade(s.id, trade.Symbol, trade.Direction)
	observability.UpdateSessionGauges(s.id, totals.CumulativeNetPnl, s.vault.Total(), totals.SessionHitRate())
	observability.UpdateCooldownGauges(s.id, s.controller.SpeedMode(), s.controller.HitRate())

	s.publish(domain.EventTradeRecorded,
		fmt.Sprintf("trade %d: %s %s net %.4f (%s)",
			trade.Sequence, trade.Symbol, trade.Direction, trade.NetProfit, trade.ExitReason),
		trade, nil)
	s.logger.Info().
		Int64("seq", trade.Sequence).
		Str("symbol", trade.Symbol).
		Str("direction", string(trade.Direction)).
		Float64("net", trade.NetProfit).
		Str("exit_reason", trade.ExitReason).
		Msg("trade recorded")

	s.publishModeChanges()

	if totals.TradesExecuted%AuditEvery == 0 {
		s.runAudit(ctx)
	}
}

// publishModeChanges emits one event per controller transition since the
// last check.
func (s *Session) publishModeChanges() {
	history := s.controller.History()

	s.mu.Lock()
	seen := s.transitions
	s.transitions = len(history)
	s.mu.Unlock()

	for _, tr := range history[seen:] {
		observability.RecordModeTransition()
		s.publish(domain.EventSpeedModeChanged,
			fmt.Sprintf("speed mode %s -> %s (%s)", tr.From, tr.To, tr.Reason), nil, nil)
		s.logger.Info().
			Str("from", string(tr.From)).
			Str("to", string(tr.To)).
			Float64("hit_rate", tr.HitRate).
			Msg("speed mode changed")
	}
}

// runAudit assembles a snapshot, runs the auditor, persists the report, and
// emits events. Invariant failures are findings, not stop conditions; the
// floor gate in runCycle handles the one fatal case live.
func (s *Session) runAudit(ctx context.Context) {
	bal, err := s.balances.Available(ctx, s.account)

	s.mu.Lock()
	if err != nil {
		// No balance, no floor verdict; audit against the floor itself.
		bal = s.floor
	}
	s.reportCount++
	records := make([]*domain.TradeRecord, len(s.records))
	copy(records, s.records)
	in := audit.Input{
		SessionID:      s.id,
		ReportNumber:   s.reportCount,
		GeneratedAtMs:  s.now().UnixMilli(),
		BalanceFloor:   s.floor,
		CurrentBalance: bal,
		Records:        records,
		Totals:         s.totals,
		MinNetProfit:   s.cfg.MinNetProfit,
	}
	s.mu.Unlock()

	in.VaultedProfit = s.vault.Total()
	in.VaultEntries = s.vault.Entries()
	in.WindowSize = s.controller.WindowSize()
	in.RollingHitRate = s.controller.HitRate()
	in.LiveMode = s.controller.SpeedMode()
	in.LiveCooldownMs = s.controller.Cooldown().Milliseconds()

	report := s.auditor.Run(in)

	if err := s.reports.Insert(ctx, report); err != nil {
		s.logger.Error().Err(err).Str("report_id", report.ReportID).Msg("report insert failed")
	}

	observability.RecordAuditReport(report)
	s.publish(domain.EventAuditReportGenerated, report.Summary, nil, report)
	s.logger.Info().Int("report", report.ReportNumber).Str("summary", report.Summary).Msg("audit report generated")

	for _, failed := range report.Failed() {
		s.publish(domain.EventInvariantViolated,
			fmt.Sprintf("%s: %s", failed.Name, failed.Detail), nil, report)
		s.logger.Error().Str("invariant", failed.Name).Str("detail", failed.Detail).Msg("invariant violated")
	}
}

// takeProfitPct converts the quote-currency profit target into a percent
// move of the position.
func (s *Session) takeProfitPct() float64 {
	return s.cfg.ProfitPerTrade / s.cfg.PositionAmount * 100
}

func (s *Session) stopLossPct() float64 {
	return s.cfg.PerTradeStopLoss() / s.cfg.PositionAmount * 100
}

func (s *Session) publish(t domain.EventType, msg string, trade *domain.TradeRecord, report *domain.AuditReport) {
	s.bus.Publish(domain.Event{
		Type:      t,
		SessionID: s.id,
		At:        s.now(),
		Message:   msg,
		Trade:     trade,
		Report:    report,
	})
}
