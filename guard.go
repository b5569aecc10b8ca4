// FILE: guard.go
// Package main – PriceGuard: live-quote deviation screen.
//
// Each Accept call fetches one live quote and compares the trade's reference
// price against it: deviation = |ref - market| / market, accepted iff the
// deviation is within the configured threshold (default 0.003 = 0.3%).
// Any failure to obtain a positive market price rejects the trade — when the
// market can't be seen, nothing trades.

package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

type PriceGuard struct {
	broker    Broker
	threshold decimal.Decimal
}

func NewPriceGuard(broker Broker, threshold decimal.Decimal) *PriceGuard {
	return &PriceGuard{broker: broker, threshold: threshold}
}

// Accept reports whether the trade's reference price is close enough to the
// live market. The market price is returned for the caller's logs; it is zero
// when no usable quote was obtained.
func (g *PriceGuard) Accept(ctx context.Context, t Trade) (bool, decimal.Decimal) {
	quotes, err := g.broker.Quote(ctx, []string{t.Symbol})
	if err != nil {
		log.Printf("[GUARD] %s: quote fetch failed: %v (rejecting)", t.Symbol, err)
		return false, decimal.Zero
	}
	var market decimal.Decimal
	for _, q := range quotes {
		if q.Symbol == t.Symbol {
			market = q.LastDone
			break
		}
	}
	if !market.IsPositive() {
		log.Printf("[GUARD] %s: no usable market price (rejecting)", t.Symbol)
		return false, decimal.Zero
	}
	deviation := t.Price.Sub(market).Abs().Div(market)
	return deviation.LessThanOrEqual(g.threshold), market
}
