// Package main runs the trading engine daemon: one session per configured
// bot, wired to a shared price feed, paper execution, durable trade/audit
// storage, and an HTTP surface for health, status, control, and reports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"scalp-engine/internal/config"
	"scalp-engine/internal/domain"
	"scalp-engine/internal/execution"
	"scalp-engine/internal/feed"
	"scalp-engine/internal/logging"
	"scalp-engine/internal/observability"
	"scalp-engine/internal/reporting"
	"scalp-engine/internal/session"
	signalsrc "scalp-engine/internal/signal"
	"scalp-engine/internal/storage"
	chstore "scalp-engine/internal/storage/clickhouse"
	"scalp-engine/internal/storage/memory"
	"scalp-engine/internal/storage/migrations"
	pgstore "scalp-engine/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	initialBalance := flag.Float64("initial-balance", 1000, "Starting paper balance per account (quote currency)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trades, reports, analytics, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage setup failed")
	}
	defer cleanup()

	prices, closeFeed, err := createFeed(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("feed setup failed")
	}
	defer closeFeed()

	balances := execution.NewPaperBalance()
	bus := session.NewBus()

	sessions := make(map[string]*session.Session, len(cfg.Sessions))
	accounts := make(map[string]string, len(cfg.Sessions)) // session ID -> account
	var order []string
	for _, spec := range cfg.Sessions {
		balances.Set(spec.Account, *initialBalance)

		sess, err := session.New(session.Options{
			ID:       spec.Name,
			Account:  spec.Account,
			Exchange: spec.Exchange,
			Mode:     spec.SessionMode(),
			Config:   spec.SessionConfig(),
			Trailing: spec.TrailingConfig(),
			Signals:  signalsrc.NewRoundRobin(),
			Exec:     execution.NewPaperService(execution.PaperOptions{}),
			Prices:   prices,
			Balances: balances,
			Trades:   trades,
			Reports:  reports,
			Bus:      bus,
			Logger:   &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("session", spec.Name).Msg("session setup failed")
		}
		sessions[sess.ID()] = sess
		accounts[sess.ID()] = spec.Account
		order = append(order, sess.ID())
	}

	subscribeEvents(bus, logger, balances, accounts, analytics)

	for _, id := range order {
		sess := sessions[id]
		if err := sess.Start(ctx); err != nil {
			logger.Fatal().Err(err).Str("session", id).Msg("session start failed")
		}
	}
	logger.Info().
		Int("sessions", len(sessions)).
		Strs("symbols", cfg.AllSymbols()).
		Msg("engine started")

	srv := startHTTPServer(cfg, sessions, order, trades, reports, logger)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	// A second signal during draining forces exit.
	go func() {
		<-sigCh
		logger.Warn().Msg("second signal, forcing exit")
		os.Exit(1)
	}()

	for _, id := range order {
		if err := sessions[id].Stop(); err != nil {
			logger.Error().Err(err).Str("session", id).Msg("session stop failed")
		}
	}
	deadline := time.After(cfg.Server.ShutdownTimeout)
	for _, id := range order {
		select {
		case <-sessions[id].Done():
		case <-deadline:
			logger.Warn().Str("session", id).Msg("session did not stop in time")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}

	logger.Info().Msg("engine stopped")
}

// createStores builds the ledger and report stores for the configured
// backend, plus the optional ClickHouse analytics sink.
func createStores(ctx context.Context, cfg *config.Config) (storage.TradeRecordStore, storage.AuditReportStore, *chstore.TradeAnalyticsStore, func(), error) {
	noop := func() {}

	var trades storage.TradeRecordStore
	var reports storage.AuditReportStore
	cleanup := noop

	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, noop, fmt.Errorf("postgres migrations: %w", err)
		}
		trades = pgstore.NewTradeRecordStore(pool)
		reports = pgstore.NewAuditReportStore(pool)
		cleanup = pool.Close
	default:
		trades = memory.NewTradeRecordStore()
		reports = memory.NewAuditReportStore()
	}

	var analytics *chstore.TradeAnalyticsStore
	if cfg.Storage.Analytics.Enabled {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.Analytics.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, noop, fmt.Errorf("clickhouse migrations: %w", err)
		}
		analytics = chstore.NewTradeAnalyticsStore(conn)
		prev := cleanup
		cleanup = func() {
			_ = conn.Close()
			prev()
		}
	}

	return trades, reports, analytics, cleanup, nil
}

// createFeed builds the configured price source, subscribed to the union of
// every session's symbols.
func createFeed(ctx context.Context, cfg *config.Config) (feed.Source, func(), error) {
	if cfg.Feed.Source == "static" {
		return feed.NewStatic(cfg.Feed.Prices), func() {}, nil
	}

	ticker, err := feed.NewWSTicker(ctx, cfg.Feed.URL, cfg.AllSymbols(), nil)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect ticker feed: %w", err)
	}
	return ticker, func() { _ = ticker.Close() }, nil
}

// subscribeEvents routes engine events to the log, keeps paper balances in
// step with recorded profits, and mirrors trades into analytics.
func subscribeEvents(bus *session.Bus, logger zerolog.Logger, balances *execution.PaperBalance, accounts map[string]string, analytics *chstore.TradeAnalyticsStore) {
	bus.Subscribe(func(ev domain.Event) {
		entry := logger.Info()
		if ev.Type == domain.EventInvariantViolated {
			entry = logger.Error()
		}
		entry.
			Str("event", string(ev.Type)).
			Str("session", ev.SessionID).
			Msg(ev.Message)

		if ev.Type != domain.EventTradeRecorded || ev.Trade == nil {
			return
		}

		if account, ok := accounts[ev.SessionID]; ok {
			balances.Credit(account, ev.Trade.NetProfit)
		}

		if analytics != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := analytics.InsertBulk(ctx, []*domain.TradeRecord{ev.Trade}); err != nil {
				logger.Error().Err(err).Str("trade", ev.Trade.TradeID).Msg("analytics insert failed")
			}
		}
	})
}

// startHTTPServer exposes health, metrics, status, reports, and session
// control. Control endpoints take an `id` query parameter; it defaults to
// the first configured session.
func startHTTPServer(cfg *config.Config, sessions map[string]*session.Session, order []string, trades storage.TradeRecordStore, reports storage.AuditReportStore, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()

	lookup := func(w http.ResponseWriter, r *http.Request) *session.Session {
		id := r.URL.Query().Get("id")
		if id == "" {
			id = order[0]
		}
		sess, ok := sessions[id]
		if !ok {
			http.Error(w, fmt.Sprintf("unknown session %q", id), http.StatusNotFound)
			return nil
		}
		return sess
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snaps := make([]session.Snapshot, 0, len(order))
		for _, id := range order {
			snaps = append(snaps, sessions[id].Snapshot())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snaps)
	})

	generator := reporting.NewGenerator(trades, reports)
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		sess := lookup(w, r)
		if sess == nil {
			return
		}
		report, err := generator.Generate(r.Context(), sess.ID())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, reporting.RenderMarkdown(report))
	})
	mux.HandleFunc("/report.csv", func(w http.ResponseWriter, r *http.Request) {
		sess := lookup(w, r)
		if sess == nil {
			return
		}
		report, err := generator.Generate(r.Context(), sess.ID())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		fmt.Fprint(w, reporting.RenderCSV(report.SymbolMetrics))
	})

	control := func(name string, action func(*session.Session) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "POST required", http.StatusMethodNotAllowed)
				return
			}
			sess := lookup(w, r)
			if sess == nil {
				return
			}
			if err := action(sess); err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Info().Str("action", name).Str("session", sess.ID()).Msg("session control")
			w.WriteHeader(http.StatusOK)
		}
	}
	mux.HandleFunc("/session/start", control("start", func(s *session.Session) error {
		return s.Start(context.Background())
	}))
	mux.HandleFunc("/session/stop", control("stop", func(s *session.Session) error {
		return s.Stop()
	}))
	mux.HandleFunc("/session/emergency-stop", control("emergency-stop", func(s *session.Session) error {
		return s.EmergencyStop()
	}))
	mux.HandleFunc("/session/reset", control("reset", func(s *session.Session) error {
		return s.Reset()
	}))

	mux.HandleFunc("/session/floor", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		sess := lookup(w, r)
		if sess == nil {
			return
		}
		delta, err := strconv.ParseFloat(r.URL.Query().Get("delta"), 64)
		if err != nil {
			http.Error(w, "delta query parameter required", http.StatusBadRequest)
			return
		}
		if err := sess.AdjustFloor(delta); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Info().
			Str("session", sess.ID()).
			Float64("delta", delta).
			Float64("floor", sess.Floor()).
			Msg("floor adjusted")
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()
	return srv
}
