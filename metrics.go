// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the metrics the bot updates during operation:
//   • bot_cycles_total{result}        – Cycles by outcome (run|unchanged|busy|no_signals|error)
//   • bot_orders_total{mode,side}     – Orders placed (mode: paper|live)
//   • bot_order_errors_total          – Failed order submissions
//   • bot_cancels_total{result}       – Stale-order cancellations (ok|error)
//   • bot_guard_rejects_total         – Trades rejected by the price guard
//   • bot_net_assets                  – Net assets from the last snapshot (gauge)
//   • bot_scrapes_total{result}       – Scrape passes (written|unchanged|error)
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Reconciliation cycles by outcome",
		},
		[]string{"result"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed",
		},
		[]string{"mode", "side"},
	)

	mtxOrderErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_order_errors_total",
			Help: "Order submissions that failed",
		},
	)

	mtxCancels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cancels_total",
			Help: "Stale-order cancellations by result",
		},
		[]string{"result"},
	)

	mtxGuardRejects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_guard_rejects_total",
			Help: "Trades rejected by the price deviation guard",
		},
	)

	mtxNetAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_net_assets",
			Help: "Net assets from the last account snapshot",
		},
	)

	mtxScrapes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_scrapes_total",
			Help: "Scrape passes by outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxOrders, mtxOrderErrors)
	prometheus.MustRegister(mtxCancels, mtxGuardRejects, mtxNetAssets)
	prometheus.MustRegister(mtxScrapes)
}

// Helper setters (used across files)
func IncCycle(result string)         { mtxCycles.WithLabelValues(result).Inc() }
func IncOrder(mode, side string)     { mtxOrders.WithLabelValues(mode, side).Inc() }
func IncOrderError()                 { mtxOrderErrors.Inc() }
func IncCancel(result string)        { mtxCancels.WithLabelValues(result).Inc() }
func IncGuardReject()                { mtxGuardRejects.Inc() }
func IncScrape(result string)        { mtxScrapes.WithLabelValues(result).Inc() }
func SetNetAssets(v decimal.Decimal) { mtxNetAssets.Set(v.InexactFloat64()) }
