// FILE: snapshot.go
// Package main – AccountSnapshot: positions and balance over the Broker.
//
// Positions are flattened across every sub-account channel into one list.
// The same symbol can appear in more than one channel (e.g. cash + margin);
// those rows are merged by summing quantities so the reconciler sees a single
// holding per symbol. First-seen order is kept.
//
// Fetch failures propagate: a cycle with no trustworthy snapshot is aborted
// rather than run against a fabricated zero-value account, which would read
// as "no holdings" and size buys against phantom capital.

package main

import (
	"context"

	"github.com/shopspring/decimal"
)

type AccountSnapshot struct {
	broker  Broker
	divisor decimal.Decimal
}

func NewAccountSnapshot(broker Broker, divisor decimal.Decimal) *AccountSnapshot {
	return &AccountSnapshot{broker: broker, divisor: divisor}
}

// Positions returns one merged holding per symbol across all channels.
func (s *AccountSnapshot) Positions(ctx context.Context) ([]Position, error) {
	channels, err := s.broker.StockPositions(ctx)
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	var out []Position
	for _, ch := range channels {
		for _, p := range ch.Positions {
			if i, ok := index[p.Symbol]; ok {
				out[i].Quantity += p.Quantity
				continue
			}
			index[p.Symbol] = len(out)
			out = append(out, p)
		}
	}
	return out, nil
}

// Balance returns net assets and the capital base available to allocate:
// net assets divided by the configured capital divisor.
func (s *AccountSnapshot) Balance(ctx context.Context) (AccountBalance, error) {
	net, err := s.broker.AccountBalance(ctx)
	if err != nil {
		return AccountBalance{}, err
	}
	bal := AccountBalance{NetAssets: net}
	if s.divisor.IsPositive() {
		bal.AvailableCapital = net.Div(s.divisor)
	}
	return bal, nil
}
