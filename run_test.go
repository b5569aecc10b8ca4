package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestController(t *testing.T, broker *PaperBroker, signalFile string) (*RunController, FingerprintStore) {
	t.Helper()
	cfg := Config{
		SignalFile:      signalFile,
		MarketSuffix:    ".US",
		FingerprintFile: filepath.Join(t.TempDir(), "lastcommit"),
		MinDeltaUSD:     dec("1"),
		APITimeoutSec:   5,
	}
	snapshot := NewAccountSnapshot(broker, dec("8"))
	guard := NewPriceGuard(broker, dec("0.003"))
	executor := NewOrderExecutor(broker, guard, false)
	store := NewFileFingerprintStore(cfg.FingerprintFile)
	return NewRunController(cfg, broker, snapshot, executor, store), store
}

func writeSignalFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTickRunsFullCycleAndPersistsFingerprint(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetNetAssets(dec("80000")) // available = 10000
	broker.SetQuote("NVDA.US", dec("100.00"))

	raw := "英伟达,0.00%->50.00%,NVDA,参考成交价 100.00\n"
	rc, store := newTestController(t, broker, writeSignalFile(t, raw))

	rc.Tick(context.Background())

	if len(broker.Submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(broker.Submitted))
	}
	// target 50% of 10000 at 100/share.
	if broker.Submitted[0].Quantity != 50 {
		t.Errorf("quantity = %d", broker.Submitted[0].Quantity)
	}
	got, err := store.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got != computeFingerprint([]byte(raw)) {
		t.Errorf("fingerprint not persisted after submission, got %q", got)
	}
}

func TestTickSkipsUnchangedBatch(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetNetAssets(dec("80000"))
	broker.SetQuote("NVDA.US", dec("100.00"))

	rc, _ := newTestController(t, broker, writeSignalFile(t, "英伟达,0.00%->50.00%,NVDA,参考成交价 100.00\n"))

	rc.Tick(context.Background())
	broker.Calls = 0

	rc.Tick(context.Background())
	if broker.Calls != 0 {
		t.Fatalf("unchanged batch must make zero broker calls, got %d (%v)", broker.Calls, broker.Events)
	}
}

func TestTickSkipsWhileCycleRunning(t *testing.T) {
	broker := NewPaperBroker()
	rc, _ := newTestController(t, broker, writeSignalFile(t, "x,0.00%->10.00%,A,参考成交价 1.00\n"))

	if !rc.begin() {
		t.Fatal("begin should succeed from Idle")
	}
	rc.Tick(context.Background()) // overlapping tick
	if broker.Calls != 0 {
		t.Fatalf("overlapping tick must be skipped, got %d broker calls", broker.Calls)
	}
	rc.end()

	if !rc.begin() {
		t.Fatal("controller must return to Idle after end")
	}
	rc.end()
}

func TestTickMissingSignalFileIsNotFatal(t *testing.T) {
	broker := NewPaperBroker()
	rc, store := newTestController(t, broker, filepath.Join(t.TempDir(), "nope.csv"))

	rc.Tick(context.Background())

	if broker.Calls != 0 {
		t.Fatalf("no signal file must mean zero broker calls, got %d", broker.Calls)
	}
	if got, _ := store.Read(); got != "" {
		t.Errorf("no fingerprint should be written, got %q", got)
	}
}

func TestFailedCycleLeavesFingerprintUnwritten(t *testing.T) {
	broker := NewPaperBroker()
	broker.failBalance = true
	raw := "英伟达,0.00%->50.00%,NVDA,参考成交价 100.00\n"
	rc, store := newTestController(t, broker, writeSignalFile(t, raw))

	rc.Tick(context.Background())

	if len(broker.Submitted) != 0 {
		t.Fatalf("failed snapshot must abort before submission")
	}
	if got, _ := store.Read(); got != "" {
		t.Errorf("failed cycle must not persist the fingerprint, got %q", got)
	}

	// The batch is retried once the account becomes readable again.
	broker.failBalance = false
	broker.SetNetAssets(dec("80000"))
	broker.SetQuote("NVDA.US", dec("100.00"))
	rc.Tick(context.Background())
	if len(broker.Submitted) != 1 {
		t.Fatalf("batch should re-run after a failed cycle, got %d submissions", len(broker.Submitted))
	}
}

func TestQuoteFailureAbortsCycle(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetNetAssets(dec("80000"))
	broker.failQuote = true
	raw := "英伟达,0.00%->50.00%,NVDA,参考成交价 100.00\n"
	rc, store := newTestController(t, broker, writeSignalFile(t, raw))

	rc.Tick(context.Background())

	if len(broker.Submitted) != 0 || len(broker.Canceled) != 0 {
		t.Fatalf("quote failure must abort before any order activity")
	}
	if got, _ := store.Read(); got != "" {
		t.Errorf("aborted cycle must not persist the fingerprint, got %q", got)
	}
}
