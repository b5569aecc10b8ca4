// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()               – read ./rebalancer.env (no shell exports required)
//   2) cfg := loadConfigFromEnv() – build runtime Config
//   3) wire broker/snapshot/guard/executor/controller
//   4) start Prometheus /healthz server on cfg.Port
//   5) run the scheduled loop, a single cycle, or the scrape collaborator
//
// Flags:
//   -once     Run exactly one reconciliation cycle and exit
//   -scrape   Run the device scrape loop that produces the signal file
//
// Example:
//   go run . -once
//
// Notes:
//   - With no credentials file the bot runs against the paper broker.
//   - DRY_RUN=true (the default) logs orders instead of submitting them.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var once bool
	var scrape bool
	flag.BoolVar(&once, "once", false, "Run a single reconciliation cycle and exit")
	flag.BoolVar(&scrape, "scrape", false, "Run the device scrape loop (produces the signal file)")
	flag.Parse()

	// ---- Environment & Config ----
	loadBotEnv()
	cfg := loadConfigFromEnv()

	// ---- Broker wiring ----
	var broker Broker
	switch strings.ToLower(getEnv("BROKER", "")) {
	case "longbridge":
		lb, err := NewLongbridgeBroker(cfg.LongbridgeBaseURL, cfg.CredentialsFile, cfg.APIRatePerSec)
		if err != nil {
			log.Fatalf("longbridge broker init: %v", err)
		}
		broker = lb
	case "paper":
		broker = NewPaperBroker()
	default:
		if _, err := os.Stat(cfg.CredentialsFile); err == nil {
			lb, err := NewLongbridgeBroker(cfg.LongbridgeBaseURL, cfg.CredentialsFile, cfg.APIRatePerSec)
			if err != nil {
				log.Fatalf("longbridge broker init: %v", err)
			}
			broker = lb
		} else {
			broker = NewPaperBroker()
		}
	}

	snapshot := NewAccountSnapshot(broker, cfg.CapitalDivisor)
	guard := NewPriceGuard(broker, cfg.PriceDeviationPct)
	executor := NewOrderExecutor(broker, guard, cfg.DryRun)
	store := NewFileFingerprintStore(cfg.FingerprintFile)
	controller := NewRunController(cfg, broker, snapshot, executor, store)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Run selected mode ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("Starting %s — broker=%s dry_run=%v signal_file=%s",
		"rebalancer", broker.Name(), cfg.DryRun, cfg.SignalFile)
	log.Printf("[SAFETY] CAPITAL_DIVISOR=%s | MIN_DELTA_USD=%s | PRICE_DEVIATION_PCT=%s | CRON_SPEC=%q",
		cfg.CapitalDivisor, cfg.MinDeltaUSD, cfg.PriceDeviationPct, cfg.CronSpec)

	switch {
	case scrape:
		runScrape(ctx, cfg)
	case once:
		controller.Tick(ctx)
	default:
		if err := runLive(ctx, controller, cfg.CronSpec); err != nil {
			log.Fatalf("live loop: %v", err)
		}
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
