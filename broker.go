// FILE: broker.go
// Package main – Broker abstractions shared by all execution backends.
//
// This file defines the minimal interface the reconciliation loop needs to
// talk to the trading backend (paper or real):
//   • Broker interface: positions, balance, quotes, order submit/cancel, open orders
//   • Common types: OrderSide, OrderStatus, Position, PositionChannel, Quote,
//     PendingOrder, OrderRequest
//
// Two concrete implementations live in separate files:
//   • broker_paper.go       – in-memory paper broker (no external calls)
//   • broker_longbridge.go  – signed REST client for the live trade API
package main

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "Buy"
	SideSell OrderSide = "Sell"
)

// OrderStatus is the lifecycle status of an order at the broker.
type OrderStatus string

const (
	StatusNew           OrderStatus = "New"
	StatusPartialFilled OrderStatus = "PartialFilled"
	StatusFilled        OrderStatus = "Filled"
	StatusCanceled      OrderStatus = "Canceled"
	StatusRejected      OrderStatus = "Rejected"
)

// Order type / time-in-force values understood by the trade API.
const (
	OrderTypeLimit = "LO"
	TIFDay         = "Day"
)

// Position is one holding: symbol plus a non-negative share count.
type Position struct {
	Symbol   string
	Quantity int64
}

// PositionChannel is one sub-account channel's holdings as returned by the
// trade API. The snapshot layer flattens channels into a single list.
type PositionChannel struct {
	Channel   string
	Positions []Position
}

// AccountBalance is the capital view the reconciler sizes against.
// AvailableCapital is NetAssets scaled down by the configured divisor.
type AccountBalance struct {
	NetAssets        decimal.Decimal
	AvailableCapital decimal.Decimal
}

// Quote is a live market quote for one symbol.
type Quote struct {
	Symbol   string
	LastDone decimal.Decimal
}

// PendingOrder is an order read back from the trade API.
type PendingOrder struct {
	OrderID string
	Symbol  string
	Status  OrderStatus
}

// OrderRequest is a limit order submission.
type OrderRequest struct {
	Symbol      string
	Side        OrderSide
	OrderType   string
	TimeInForce string
	Price       decimal.Decimal
	Quantity    int64
	Remark      string // client-side idempotency tag
}

// Broker is the minimal surface the bot needs to operate.
type Broker interface {
	Name() string
	StockPositions(ctx context.Context) ([]PositionChannel, error)
	AccountBalance(ctx context.Context) (decimal.Decimal, error) // net assets
	Quote(ctx context.Context, symbols []string) ([]Quote, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
	TodayOrders(ctx context.Context, status OrderStatus) ([]PendingOrder, error)
	CancelOrder(ctx context.Context, orderID string) error
}
