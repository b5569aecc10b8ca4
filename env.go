// FILE: env.go
// Package main – Environment helpers for the rebalancer.
//
// This file provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats, bools).
//   2) A safe loader (loadBotEnv) that reads ./rebalancer.env only, setting
//      the keys the bot needs without overriding the process environment.
//
// Notes:
//   • The bot never requires `export $(cat .env ...)`.
//   • Broker credentials live in a separate JSON file (CREDENTIALS_FILE),
//     not in the env file.

package main

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}
func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// --------- .env loader (bot-only) ---------

// loadBotEnv reads ./rebalancer.env and sets ONLY the keys the bot needs.
// It won't override variables already in the environment.
func loadBotEnv() {
	path := "./rebalancer.env"
	f, err := os.Open(path)
	if err != nil {
		log.Printf("env: %s not found, relying on process env", path)
		return
	}
	defer f.Close()

	needed := map[string]struct{}{
		"SIGNAL_FILE": {}, "FINGERPRINT_FILE": {}, "MARKET_SUFFIX": {},
		"CAPITAL_DIVISOR": {}, "MIN_DELTA_USD": {}, "PRICE_DEVIATION_PCT": {},
		"CRON_SPEC": {}, "PORT": {}, "DRY_RUN": {}, "API_TIMEOUT_SEC": {},
		"BROKER": {}, "LONGBRIDGE_BASE_URL": {}, "CREDENTIALS_FILE": {},
		"API_RATE_PER_SEC": {},
		// ---- scrape mode ----
		"ADB_DEVICE_ID": {}, "APP_PACKAGE": {}, "APP_ACTIVITY": {},
		"LIST_RESOURCE_ID": {}, "SCRAPE_MAX_ATTEMPTS": {}, "SCRAPE_SLEEP_SEC": {},
		"UI_DUMP_REMOTE": {}, "UI_DUMP_LOCAL": {},
	}

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(line[len("export "):])
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if _, ok := needed[key]; !ok {
			continue
		}
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		if idx := strings.Index(val, "#"); idx >= 0 {
			val = strings.TrimSpace(val[:idx])
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	log.Printf("env: loaded %s", path)
}
