// FILE: signal.go
// Package main – SignalSource: allocation-change records from the scraped CSV.
//
// The scrape collaborator (scrape.go) writes one record per line:
//   name, "<cur>%-><tgt>%", bareSymbolCode, "参考成交价 <decimal>"
//
// Parsing is deliberately forgiving: a malformed allocation field yields a
// 0/0 pair, a malformed price field yields no price, and an unreadable file
// yields an empty batch. "No signals this cycle" is a safe degraded state, so
// nothing here ever aborts the cycle.

package main

import (
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Signal is one row of externally supplied target-allocation intent.
type Signal struct {
	Name              string
	Symbol            string
	CurrentAllocation decimal.Decimal // fraction in [0,1]
	TargetAllocation  decimal.Decimal // fraction in [0,1]
	ReferencePrice    decimal.Decimal
	HasPrice          bool
}

var (
	allocPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%->(\d+(?:\.\d+)?)%`)
	pricePattern = regexp.MustCompile(`参考成交价\s+(\d+(?:\.\d+)?)`)
)

var hundred = decimal.NewFromInt(100)

// parseAllocation extracts the current/target fractions from "31.07%->0.00%".
// No match returns 0/0.
func parseAllocation(s string) (current, target decimal.Decimal) {
	m := allocPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, decimal.Zero
	}
	cur, err1 := decimal.NewFromString(m[1])
	tgt, err2 := decimal.NewFromString(m[2])
	if err1 != nil || err2 != nil {
		return decimal.Zero, decimal.Zero
	}
	return cur.Div(hundred), tgt.Div(hundred)
}

// parsePrice extracts the labeled reference price. No match returns ok=false.
func parsePrice(s string) (decimal.Decimal, bool) {
	m := pricePattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}

// parseTradeSignals parses raw CSV bytes into signals. Lines with fewer than
// four fields keep whatever fields they have; missing ones parse to zero
// values per the rules above.
func parseTradeSignals(raw []byte, marketSuffix string) []Signal {
	var out []Signal
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		field := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}
		cur, tgt := parseAllocation(field(1))
		price, hasPrice := parsePrice(field(3))
		symbol := field(2)
		if symbol != "" {
			symbol += marketSuffix
		}
		out = append(out, Signal{
			Name:              field(0),
			Symbol:            symbol,
			CurrentAllocation: cur,
			TargetAllocation:  tgt,
			ReferencePrice:    price,
			HasPrice:          hasPrice,
		})
	}
	return out
}

// readTradeSignals reads and parses the signal file. An unreadable file is
// logged and treated as an empty batch.
func readTradeSignals(path, marketSuffix string) []Signal {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[SIGNAL] read %s failed: %v (treating as empty batch)", path, err)
		return nil
	}
	return parseTradeSignals(raw, marketSuffix)
}
