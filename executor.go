// FILE: executor.go
// Package main – OrderExecutor: cancel stale orders, then submit new ones.
//
// Ordering matters here: the cancellation pass must complete (or at least be
// attempted for every open order) before the first submission, so a stale
// order and a fresh one never coexist for the same symbol. Submissions are
// strictly sequential — no batching, no fan-out.
//
// Failure isolation: one failed cancel or submit is logged and the loop moves
// on. A rejected price screen skips only that trade.

package main

import (
	"context"
	"log"

	"github.com/google/uuid"
)

type OrderExecutor struct {
	broker Broker
	guard  *PriceGuard
	dryRun bool
}

func NewOrderExecutor(broker Broker, guard *PriceGuard, dryRun bool) *OrderExecutor {
	return &OrderExecutor{broker: broker, guard: guard, dryRun: dryRun}
}

// OrderResult records what happened to one candidate trade.
type OrderResult struct {
	Trade    Trade
	OrderID  string
	Rejected bool // price guard rejection
	Err      error
}

// CancelStale fetches today's orders still in New status and cancels each.
// Individual failures are logged; remaining cancellations proceed.
func (e *OrderExecutor) CancelStale(ctx context.Context) {
	orders, err := e.broker.TodayOrders(ctx, StatusNew)
	if err != nil {
		log.Printf("[EXEC] fetch open orders failed: %v", err)
		return
	}
	for _, o := range orders {
		if e.dryRun {
			log.Printf("[EXEC] dry-run: would cancel order %s (%s)", o.OrderID, o.Symbol)
			continue
		}
		if err := e.broker.CancelOrder(ctx, o.OrderID); err != nil {
			log.Printf("[EXEC] cancel %s (%s) failed: %v", o.OrderID, o.Symbol, err)
			IncCancel("error")
			continue
		}
		log.Printf("[EXEC] canceled order %s (%s)", o.OrderID, o.Symbol)
		IncCancel("ok")
	}
}

// Submit runs every candidate through the price guard and places the accepted
// ones as day limit orders at the reference price rounded to two decimals.
func (e *OrderExecutor) Submit(ctx context.Context, trades []Trade) []OrderResult {
	results := make([]OrderResult, 0, len(trades))
	for _, t := range trades {
		ok, market := e.guard.Accept(ctx, t)
		if !ok {
			log.Printf("[GUARD] deviation too large, skipping %s %s: order price %s, market price %s",
				t.Side, t.Symbol, t.Price, market)
			IncGuardReject()
			results = append(results, OrderResult{Trade: t, Rejected: true})
			continue
		}

		req := OrderRequest{
			Symbol:      t.Symbol,
			Side:        t.Side,
			OrderType:   OrderTypeLimit,
			TimeInForce: TIFDay,
			Price:       t.Price.Round(2),
			Quantity:    t.Quantity,
			Remark:      uuid.New().String(),
		}
		if e.dryRun {
			log.Printf("[EXEC] dry-run: would %s %s x%d @ %s (market %s)",
				t.Side, t.Symbol, t.Quantity, req.Price, market)
			IncOrder("paper", string(t.Side))
			results = append(results, OrderResult{Trade: t, OrderID: req.Remark})
			continue
		}

		log.Printf("[EXEC] %s %s x%d @ %s (market %s)", t.Side, t.Symbol, t.Quantity, req.Price, market)
		orderID, err := e.broker.SubmitOrder(ctx, req)
		if err != nil {
			log.Printf("[EXEC] submit %s %s failed: %v", t.Side, t.Symbol, err)
			IncOrderError()
			results = append(results, OrderResult{Trade: t, Err: err})
			continue
		}
		log.Printf("[EXEC] order accepted: %s", orderID)
		IncOrder("live", string(t.Side))
		results = append(results, OrderResult{Trade: t, OrderID: orderID})
	}
	return results
}
