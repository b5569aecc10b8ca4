package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sig(symbol string, target, price string) Signal {
	return Signal{
		Symbol:           symbol,
		TargetAllocation: dec(target),
		ReferencePrice:   dec(price),
		HasPrice:         true,
	}
}

func balanceWith(available string) AccountBalance {
	return AccountBalance{NetAssets: dec(available).Mul(dec("8")), AvailableCapital: dec(available)}
}

func TestReconcileFullLiquidation(t *testing.T) {
	signals := []Signal{sig("X.US", "0", "50")}
	positions := []Position{{Symbol: "X.US", Quantity: 137}}
	marks := map[string]decimal.Decimal{"X.US": dec("55")}

	trades := reconcile(signals, positions, balanceWith("10000"), marks, dec("1"))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Side != SideSell || tr.Quantity != 137 {
		t.Errorf("expected full-liquidation Sell 137, got %s %d", tr.Side, tr.Quantity)
	}
	if !tr.Price.Equal(dec("50")) {
		t.Errorf("expected reference price 50, got %s", tr.Price)
	}
}

func TestReconcileSellCappedAtHolding(t *testing.T) {
	// Spec scenario: target 10% of 10000, holding 100 @ mark 55.
	// diff = |1000 - 5500| = 4500; 4500/50 = 90; min(90, 100) = 90.
	signals := []Signal{sig("X.US", "0.10", "50.00")}
	positions := []Position{{Symbol: "X.US", Quantity: 100}}
	marks := map[string]decimal.Decimal{"X.US": dec("55")}

	trades := reconcile(signals, positions, balanceWith("10000"), marks, dec("1"))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Side != SideSell || tr.Quantity != 90 {
		t.Errorf("expected Sell 90, got %s %d", tr.Side, tr.Quantity)
	}
	if !tr.Price.Equal(dec("50.00")) {
		t.Errorf("expected price 50.00, got %s", tr.Price)
	}
}

func TestReconcileSellNeverExceedsHolding(t *testing.T) {
	// Overvalued tiny holding: diff/price would want more shares than held.
	signals := []Signal{sig("X.US", "0.01", "1")}
	positions := []Position{{Symbol: "X.US", Quantity: 5}}
	marks := map[string]decimal.Decimal{"X.US": dec("1000")}

	trades := reconcile(signals, positions, balanceWith("10000"), marks, dec("1"))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Quantity > 5 {
		t.Errorf("sell quantity %d exceeds holding 5", trades[0].Quantity)
	}
}

func TestReconcileBuyFromFlat(t *testing.T) {
	// Spec scenario: target 30% of 10000 with no holding at price 20
	// -> additionalValue 3000, quantity floor(3000/20) = 150.
	signals := []Signal{sig("Y.US", "0.30", "20.00")}

	trades := reconcile(signals, nil, balanceWith("10000"), nil, dec("1"))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Side != SideBuy || tr.Quantity != 150 {
		t.Errorf("expected Buy 150, got %s %d", tr.Side, tr.Quantity)
	}
}

func TestReconcileWithinTolerance(t *testing.T) {
	// Holding worth exactly the target value: no trade.
	signals := []Signal{sig("X.US", "0.10", "50")}
	positions := []Position{{Symbol: "X.US", Quantity: 100}}
	marks := map[string]decimal.Decimal{"X.US": dec("10")} // 100*10 = 1000 = target

	trades := reconcile(signals, positions, balanceWith("10000"), marks, dec("1"))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
}

func TestReconcileNoShorting(t *testing.T) {
	// Needs to sell but holds nothing: skip.
	signals := []Signal{{
		Symbol:            "X.US",
		CurrentAllocation: dec("0.5"),
		TargetAllocation:  dec("0.10"),
		ReferencePrice:    dec("50"),
		HasPrice:          true,
	}}
	// No position but a nonzero "current" mark shouldn't matter: currentValue
	// derives from holdings only.
	marks := map[string]decimal.Decimal{"X.US": dec("55")}

	trades := reconcile(signals, nil, balanceWith("100"), marks, dec("1"))
	for _, tr := range trades {
		if tr.Side == SideSell {
			t.Fatalf("emitted short sell: %+v", tr)
		}
	}
}

func TestReconcileBuyRoundsDownToZero(t *testing.T) {
	// avail=1000, target=0.10 -> targetValue=100; holding worth 99 leaves a
	// 1-unit gap above tolerance, but floor(1/10) = 0 shares: nothing to buy.
	signals := []Signal{sig("Z.US", "0.10", "10")}
	positions := []Position{{Symbol: "Z.US", Quantity: 99}}
	marks := map[string]decimal.Decimal{"Z.US": dec("1")}

	trades := reconcile(signals, positions, balanceWith("1000"), marks, dec("0.5"))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %+v", trades)
	}
}

func TestReconcileNoPriceNoTrade(t *testing.T) {
	signals := []Signal{{
		Symbol:           "X.US",
		TargetAllocation: dec("0.5"),
		HasPrice:         false,
	}}
	trades := reconcile(signals, nil, balanceWith("10000"), nil, dec("1"))
	if len(trades) != 0 {
		t.Fatalf("expected no trades for priceless signal, got %d", len(trades))
	}
}

func TestReconcileEmptySymbolSkipped(t *testing.T) {
	signals := []Signal{{TargetAllocation: dec("0.5"), ReferencePrice: dec("10"), HasPrice: true}}
	trades := reconcile(signals, nil, balanceWith("10000"), nil, dec("1"))
	if len(trades) != 0 {
		t.Fatalf("expected no trades for empty symbol, got %d", len(trades))
	}
}

func TestReconcilePreservesSignalOrder(t *testing.T) {
	signals := []Signal{
		sig("A.US", "0.10", "10"),
		sig("B.US", "0.10", "10"),
		sig("C.US", "0.10", "10"),
	}
	trades := reconcile(signals, nil, balanceWith("10000"), nil, dec("1"))
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	want := []string{"A.US", "B.US", "C.US"}
	for i, tr := range trades {
		if tr.Symbol != want[i] {
			t.Errorf("trade %d: expected %s, got %s", i, want[i], tr.Symbol)
		}
	}
}

func TestReconcileZeroCapitalNoBuys(t *testing.T) {
	signals := []Signal{sig("X.US", "0.50", "10")}
	trades := reconcile(signals, nil, AccountBalance{}, nil, dec("1"))
	if len(trades) != 0 {
		t.Fatalf("expected no trades with zero capital, got %d", len(trades))
	}
}
