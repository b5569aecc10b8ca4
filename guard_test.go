package main

import (
	"context"
	"testing"
)

func TestGuardAcceptsWithinThreshold(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetQuote("X.US", dec("100.00"))
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, market := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideBuy, Price: dec("100.20"), Quantity: 1})
	if !ok {
		t.Fatalf("deviation 0.002 should be accepted")
	}
	if !market.Equal(dec("100.00")) {
		t.Errorf("market = %s", market)
	}
}

func TestGuardRejectsBeyondThreshold(t *testing.T) {
	// Spec scenario: ref 20.00 vs market 20.10 -> deviation 0.00498 > 0.003.
	broker := NewPaperBroker()
	broker.SetQuote("X.US", dec("20.10"))
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, _ := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideBuy, Price: dec("20.00"), Quantity: 1})
	if ok {
		t.Fatalf("deviation 0.00498 should be rejected")
	}
}

func TestGuardExactThresholdAccepted(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetQuote("X.US", dec("100"))
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, _ := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideSell, Price: dec("100.30"), Quantity: 1})
	if !ok {
		t.Fatalf("deviation exactly at threshold should be accepted")
	}
}

func TestGuardRejectsMissingQuote(t *testing.T) {
	broker := NewPaperBroker() // no quote seeded
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, _ := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideBuy, Price: dec("10"), Quantity: 1})
	if ok {
		t.Fatalf("missing quote must fail closed")
	}
}

func TestGuardRejectsZeroMarketPrice(t *testing.T) {
	broker := NewPaperBroker()
	broker.SetQuote("X.US", dec("0"))
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, _ := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideBuy, Price: dec("10"), Quantity: 1})
	if ok {
		t.Fatalf("zero market price must fail closed")
	}
}

func TestGuardRejectsOnFetchError(t *testing.T) {
	broker := NewPaperBroker()
	broker.failQuote = true
	guard := NewPriceGuard(broker, dec("0.003"))

	ok, _ := guard.Accept(context.Background(), Trade{Symbol: "X.US", Side: SideBuy, Price: dec("10"), Quantity: 1})
	if ok {
		t.Fatalf("quote fetch error must fail closed")
	}
}
