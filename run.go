// FILE: run.go
// Package main – RunController: periodic trigger, run dedup, cycle pipeline.
//
// The controller is an explicit two-state machine (Idle/Running) driven by a
// seconds-resolution cron schedule. A tick that fires while a cycle is still
// running is skipped outright — no queueing, no coalescing. Otherwise the
// cycle reads the signal file, fingerprints the batch, and bails with zero
// broker calls when the batch is the one already acted upon.
//
// Pipeline per changed batch:
//   signals -> snapshot (positions, balance) -> quotes -> reconcile ->
//   cancel stale orders -> guarded sequential submit -> persist fingerprint
//
// The fingerprint is persisted only after the submission pass, so a cycle
// that dies midway is retried in full on the next tick; the duplicate-order
// risk that creates is bounded by the stale-order cancellation at the start
// of every cycle. Any error, including a panic, returns the machine to Idle.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

type RunController struct {
	cfg      Config
	broker   Broker
	snapshot *AccountSnapshot
	executor *OrderExecutor
	store    FingerprintStore

	mu      sync.Mutex
	running bool
}

func NewRunController(cfg Config, broker Broker, snapshot *AccountSnapshot, executor *OrderExecutor, store FingerprintStore) *RunController {
	return &RunController{cfg: cfg, broker: broker, snapshot: snapshot, executor: executor, store: store}
}

// begin attempts the Idle -> Running transition.
func (rc *RunController) begin() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.running {
		return false
	}
	rc.running = true
	return true
}

func (rc *RunController) end() {
	rc.mu.Lock()
	rc.running = false
	rc.mu.Unlock()
}

// Tick is the scheduled entry point. No error ever escapes it.
func (rc *RunController) Tick(ctx context.Context) {
	if !rc.begin() {
		log.Printf("[CYCLE] previous cycle still running, skipping this tick")
		IncCycle("busy")
		return
	}
	defer rc.end()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CYCLE] panic recovered: %v", r)
			IncCycle("error")
		}
	}()

	if err := rc.runCycle(ctx); err != nil {
		log.Printf("[CYCLE] cycle failed: %v", err)
		IncCycle("error")
	}
}

// apiCtx bounds one external call so a stuck request can't wedge the cycle.
func (rc *RunController) apiCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(rc.cfg.APITimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (rc *RunController) runCycle(ctx context.Context) error {
	raw, err := os.ReadFile(rc.cfg.SignalFile)
	if err != nil {
		// No batch this cycle is a safe degraded state, not a failure.
		log.Printf("[CYCLE] read %s failed: %v (no signals this cycle)", rc.cfg.SignalFile, err)
		IncCycle("no_signals")
		return nil
	}

	fp := computeFingerprint(raw)
	last, err := rc.store.Read()
	if err != nil {
		log.Printf("[CYCLE] fingerprint read failed: %v (treating batch as new)", err)
	}
	if fp == last {
		log.Printf("[CYCLE] signal batch unchanged, skipping")
		IncCycle("unchanged")
		return nil
	}

	signals := parseTradeSignals(raw, rc.cfg.MarketSuffix)
	log.Printf("[CYCLE] new signal batch: %d signals, fingerprint %.12s...", len(signals), fp)

	sctx, cancel := rc.apiCtx(ctx)
	positions, err := rc.snapshot.Positions(sctx)
	cancel()
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	bctx, cancel := rc.apiCtx(ctx)
	balance, err := rc.snapshot.Balance(bctx)
	cancel()
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	SetNetAssets(balance.NetAssets)
	log.Printf("[CYCLE] positions=%d net_assets=%s available=%s",
		len(positions), balance.NetAssets, balance.AvailableCapital)

	marks, err := rc.fetchMarks(ctx, signals)
	if err != nil {
		return fmt.Errorf("marks: %w", err)
	}

	trades := reconcile(signals, positions, balance, marks, rc.cfg.MinDeltaUSD)
	log.Printf("[CYCLE] %d candidate trade(s)", len(trades))

	// Every stale order must be attempted before any new submission.
	rc.executor.CancelStale(ctx)
	rc.executor.Submit(ctx, trades)

	if err := rc.store.Write(fp); err != nil {
		log.Printf("[CYCLE] fingerprint write failed: %v (batch will re-run next tick)", err)
	}
	IncCycle("run")
	return nil
}

// fetchMarks prices the held side of each signal symbol in one quote call.
func (rc *RunController) fetchMarks(ctx context.Context, signals []Signal) (map[string]decimal.Decimal, error) {
	seen := map[string]struct{}{}
	var symbols []string
	for _, s := range signals {
		if s.Symbol == "" {
			continue
		}
		if _, ok := seen[s.Symbol]; ok {
			continue
		}
		seen[s.Symbol] = struct{}{}
		symbols = append(symbols, s.Symbol)
	}
	marks := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return marks, nil
	}
	qctx, cancel := rc.apiCtx(ctx)
	defer cancel()
	quotes, err := rc.broker.Quote(qctx, symbols)
	if err != nil {
		return nil, err
	}
	for _, q := range quotes {
		if q.LastDone.IsPositive() {
			marks[q.Symbol] = q.LastDone
		}
	}
	return marks, nil
}

// runLive blocks, ticking the controller on the configured cron schedule
// until ctx is canceled.
func runLive(ctx context.Context, rc *RunController, spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() { rc.Tick(ctx) }); err != nil {
		return fmt.Errorf("cron spec %q: %w", spec, err)
	}
	c.Start()
	log.Printf("[BOOT] reconciliation scheduled with cron spec %q", spec)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
