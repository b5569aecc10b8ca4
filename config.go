// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the rebalancer uses) and
// a helper to populate it from environment variables. The .env file is read
// by loadBotEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg := loadConfigFromEnv()

package main

import "github.com/shopspring/decimal"

// Config holds all runtime knobs for reconciliation and operations.
type Config struct {
	// Signal intake
	SignalFile   string // CSV produced by the scrape collaborator
	MarketSuffix string // appended to bare symbol codes, e.g. ".US"

	// Run dedup
	FingerprintFile string // single-value store for the last-acted-upon batch

	// Sizing & screening
	CapitalDivisor    decimal.Decimal // available capital = net assets / divisor
	MinDeltaUSD       decimal.Decimal // |target-current| tolerance before trading
	PriceDeviationPct decimal.Decimal // max |ref - market|/market; 0.003 = 0.3%

	// Scheduling & ops
	CronSpec      string // seconds-resolution cron expression
	Port          int
	DryRun        bool
	APITimeoutSec int

	// Live broker
	LongbridgeBaseURL string
	CredentialsFile   string // JSON: {app_key, app_secret, access_token}
	APIRatePerSec     float64

	// ---- scrape mode (device collaborator) ----
	ADBDeviceID       string
	AppPackage        string
	AppActivity       string
	ListResourceID    string // resource-id of the position-history list
	ScrapeMaxAttempts int
	ScrapeSleepSec    int
	UIDumpRemote      string
	UIDumpLocal       string
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		SignalFile:   getEnv("SIGNAL_FILE", "./data.csv"),
		MarketSuffix: getEnv("MARKET_SUFFIX", ".US"),

		FingerprintFile: getEnv("FINGERPRINT_FILE", "./lastcommit"),

		CapitalDivisor:    decimal.NewFromFloat(getEnvFloat("CAPITAL_DIVISOR", 8)),
		MinDeltaUSD:       decimal.NewFromFloat(getEnvFloat("MIN_DELTA_USD", 1.0)),
		PriceDeviationPct: decimal.NewFromFloat(getEnvFloat("PRICE_DEVIATION_PCT", 0.003)),

		CronSpec:      getEnv("CRON_SPEC", "*/30 * * * * *"),
		Port:          getEnvInt("PORT", 8080),
		DryRun:        getEnvBool("DRY_RUN", true),
		APITimeoutSec: getEnvInt("API_TIMEOUT_SEC", 10),

		LongbridgeBaseURL: getEnv("LONGBRIDGE_BASE_URL", "https://openapi.longportapp.com"),
		CredentialsFile:   getEnv("CREDENTIALS_FILE", "./keysss.txt"),
		APIRatePerSec:     getEnvFloat("API_RATE_PER_SEC", 5),

		ADBDeviceID:       getEnv("ADB_DEVICE_ID", "emulator-5554"),
		AppPackage:        getEnv("APP_PACKAGE", "cn.futu.trader"),
		AppActivity:       getEnv("APP_ACTIVITY", ".launch.activity.LaunchActivity"),
		ListResourceID:    getEnv("LIST_RESOURCE_ID", "cn.futu.trader:id/quote_portfolio_position_history_rv"),
		ScrapeMaxAttempts: getEnvInt("SCRAPE_MAX_ATTEMPTS", 3),
		ScrapeSleepSec:    getEnvInt("SCRAPE_SLEEP_SEC", 10),
		UIDumpRemote:      getEnv("UI_DUMP_REMOTE", "/sdcard/window_dump.xml"),
		UIDumpLocal:       getEnv("UI_DUMP_LOCAL", "./window_dump.xml"),
	}
}
