// FILE: reconcile.go
// Package main – Reconciler: pure diffing of signals against account state.
//
// reconcile is the core algorithm: (signals, positions, balance, marks) ->
// ordered candidate trades. Pure and deterministic, no I/O; output order
// follows input signal order and determines submission order downstream.
//
// Per-signal rules:
//   • no symbol or no usable reference price  -> no trade (logged)
//   • target 0 with a positive holding        -> full-liquidation sell
//   • |targetValue - currentValue| <= minDelta -> already at target
//   • buy: skip when the held ratio already meets the target, else size
//     floor(additionalValue / refPrice)
//   • sell: capped at the held quantity; never short
//
// currentValue is held quantity × live mark price (the marks map, fetched
// once per cycle). Quantity math uses the signal's reference price; the live
// price only enters valuation here and the deviation screen in guard.go.

package main

import (
	"log"

	"github.com/shopspring/decimal"
)

// Trade is one candidate order produced by the reconciler. Never persisted.
type Trade struct {
	Symbol   string
	Side     OrderSide
	Price    decimal.Decimal
	Quantity int64
}

func reconcile(signals []Signal, positions []Position, balance AccountBalance, marks map[string]decimal.Decimal, minDelta decimal.Decimal) []Trade {
	held := make(map[string]int64, len(positions))
	for _, p := range positions {
		held[p.Symbol] = p.Quantity
	}
	avail := balance.AvailableCapital

	var trades []Trade
	for _, s := range signals {
		if s.Symbol == "" {
			continue
		}
		if !s.HasPrice || !s.ReferencePrice.IsPositive() {
			log.Printf("[RECONCILE] %s: no usable reference price, skipping", s.Symbol)
			continue
		}

		qty := held[s.Symbol]
		currentValue := decimal.Zero
		if qty > 0 {
			if mark, ok := marks[s.Symbol]; ok {
				currentValue = decimal.NewFromInt(qty).Mul(mark)
			}
		}
		targetValue := avail.Mul(s.TargetAllocation)

		// Target zero with a live holding: liquidate in full.
		if s.TargetAllocation.IsZero() && qty > 0 {
			trades = append(trades, Trade{Symbol: s.Symbol, Side: SideSell, Price: s.ReferencePrice, Quantity: qty})
			continue
		}

		diff := targetValue.Sub(currentValue)
		if diff.Abs().LessThanOrEqual(minDelta) {
			continue // within tolerance, already at target
		}

		if diff.IsPositive() {
			// Buy path.
			if !avail.IsPositive() {
				log.Printf("[RECONCILE] %s: no available capital, skipping buy", s.Symbol)
				continue
			}
			currentRatio := currentValue.Div(avail)
			if currentRatio.GreaterThanOrEqual(s.TargetAllocation) {
				log.Printf("[RECONCILE] %s: current ratio %s already meets target %s, skipping buy",
					s.Symbol, currentRatio.Mul(hundred).StringFixed(2), s.TargetAllocation.Mul(hundred).StringFixed(2))
				continue
			}
			additionalValue := avail.Mul(s.TargetAllocation.Sub(currentRatio))
			n := additionalValue.Div(s.ReferencePrice).IntPart()
			if n > 0 {
				trades = append(trades, Trade{Symbol: s.Symbol, Side: SideBuy, Price: s.ReferencePrice, Quantity: n})
			}
			continue
		}

		// Sell path.
		if qty <= 0 {
			log.Printf("[RECONCILE] %s: no holding, shorting not permitted, skipping sell", s.Symbol)
			continue
		}
		n := diff.Abs().Div(s.ReferencePrice).IntPart()
		if n > qty {
			n = qty
		}
		if n > 0 {
			trades = append(trades, Trade{Symbol: s.Symbol, Side: SideSell, Price: s.ReferencePrice, Quantity: n})
		}
	}
	return trades
}
