// FILE: broker_paper.go
// Package main – In-memory paper broker (no external dependencies).
//
// This broker simulates the trade API using seeded positions, balances and
// quotes. It's used for dry runs and for tests. Orders submitted here never
// touch a real venue; they are recorded so callers (and tests) can inspect
// exactly what the executor did, in order.
//
// Methods mirror the Broker interface; see broker.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaperBroker keeps a mutable account snapshot plus a journal of every call.
type PaperBroker struct {
	mu sync.Mutex

	channels  []PositionChannel
	netAssets decimal.Decimal
	quotes    map[string]decimal.Decimal
	open      []PendingOrder

	// Failure injection for tests.
	failPositions bool
	failBalance   bool
	failQuote     bool
	failSubmit    map[string]error // keyed by symbol
	failCancel    map[string]error // keyed by order id

	// Journal of externally visible effects, in call order.
	Submitted []OrderRequest
	Canceled  []string
	Events    []string
	Calls     int
}

func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		quotes:     map[string]decimal.Decimal{},
		failSubmit: map[string]error{},
		failCancel: map[string]error{},
	}
}

func (p *PaperBroker) Name() string { return "paper" }

// --- seeding helpers (tests and dry runs) ---

func (p *PaperBroker) SetChannels(ch []PositionChannel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = ch
}

func (p *PaperBroker) SetNetAssets(v decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.netAssets = v
}

func (p *PaperBroker) SetQuote(symbol string, last decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = last
}

func (p *PaperBroker) SetOpenOrders(orders []PendingOrder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = orders
}

// --- Broker implementation ---

func (p *PaperBroker) StockPositions(ctx context.Context) ([]PositionChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "positions")
	if p.failPositions {
		return nil, errors.New("paper: positions unavailable")
	}
	out := make([]PositionChannel, len(p.channels))
	copy(out, p.channels)
	return out, nil
}

func (p *PaperBroker) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "balance")
	if p.failBalance {
		return decimal.Zero, errors.New("paper: balance unavailable")
	}
	return p.netAssets, nil
}

func (p *PaperBroker) Quote(ctx context.Context, symbols []string) ([]Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "quote")
	if p.failQuote {
		return nil, errors.New("paper: quote unavailable")
	}
	var out []Quote
	for _, s := range symbols {
		if last, ok := p.quotes[s]; ok {
			out = append(out, Quote{Symbol: s, LastDone: last})
		}
	}
	return out, nil
}

func (p *PaperBroker) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "submit:"+req.Symbol)
	if err := p.failSubmit[req.Symbol]; err != nil {
		return "", err
	}
	if req.Quantity <= 0 {
		return "", fmt.Errorf("paper: quantity must be > 0, got %d", req.Quantity)
	}
	p.Submitted = append(p.Submitted, req)
	return uuid.New().String(), nil
}

func (p *PaperBroker) TodayOrders(ctx context.Context, status OrderStatus) ([]PendingOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "todayOrders")
	var out []PendingOrder
	for _, o := range p.open {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (p *PaperBroker) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.Events = append(p.Events, "cancel:"+orderID)
	if err := p.failCancel[orderID]; err != nil {
		return err
	}
	p.Canceled = append(p.Canceled, orderID)
	for i, o := range p.open {
		if o.OrderID == orderID {
			p.open[i].Status = StatusCanceled
		}
	}
	return nil
}
