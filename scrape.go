// FILE: scrape.go
// Package main – Scrape loop: device UI -> signal file.
//
// This is the collaborator that produces data.csv for the reconciliation
// core. Each pass:
//   1) uiautomator dump on the device (with retry + recovery, see device.go)
//   2) pull the dump, parse it, locate the position-history list
//   3) when the batch date changed, write the records to the signal file
//   4) swipe to refresh the list, sleep with jitter, repeat
//
// The signal file is written via temp+rename so the trading side never reads
// a half-written batch. Batch dedup here is cosmetic (in-memory date only);
// the trading side dedups durably by fingerprinting the file contents.

package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func runScrape(ctx context.Context, cfg Config) {
	adb := NewAdbClient(cfg.ADBDeviceID)

	if err := adb.StartApp(ctx, cfg.AppPackage, cfg.AppActivity); err != nil {
		log.Printf("[SCRAPE] launch %s failed: %v (continuing; app may already be up)", cfg.AppPackage, err)
	}

	// Recovery between failed dump attempts: home screen, then relaunch.
	recoverDevice := func(rctx context.Context) {
		log.Printf("[SCRAPE] recovering: home + relaunch %s", cfg.AppPackage)
		if err := adb.PressHome(rctx); err != nil {
			log.Printf("[SCRAPE] recovery home failed: %v", err)
		}
		if err := adb.StartApp(rctx, cfg.AppPackage, cfg.AppActivity); err != nil {
			log.Printf("[SCRAPE] recovery relaunch failed: %v", err)
		}
	}

	var lastDate string
	for {
		select {
		case <-ctx.Done():
			log.Println("[SCRAPE] shutdown")
			return
		default:
		}

		if err := scrapeOnce(ctx, cfg, adb, recoverDevice, &lastDate); err != nil {
			log.Printf("[SCRAPE] pass failed: %v", err)
			IncScrape("error")
		}

		// Nudge the list so the next dump sees fresh rows.
		if err := adb.Swipe(ctx, 500, 400, 500, 1600, 200); err != nil {
			log.Printf("[SCRAPE] swipe failed: %v", err)
		}

		sleep := time.Duration(cfg.ScrapeSleepSec)*time.Second + time.Duration(rand.Intn(3000))*time.Millisecond
		select {
		case <-ctx.Done():
			log.Println("[SCRAPE] shutdown")
			return
		case <-time.After(sleep):
		}
	}
}

// scrapeOnce performs one dump-parse-write pass.
func scrapeOnce(ctx context.Context, cfg Config, adb *AdbClient, recoverDevice func(context.Context), lastDate *string) error {
	if _, err := adb.RunWithRetry(ctx, cfg.ScrapeMaxAttempts, recoverDevice,
		"shell", "uiautomator", "dump", cfg.UIDumpRemote); err != nil {
		return err
	}
	if err := adb.Pull(ctx, cfg.UIDumpRemote, cfg.UIDumpLocal); err != nil {
		return err
	}
	raw, err := os.ReadFile(cfg.UIDumpLocal)
	if err != nil {
		return err
	}
	tree, err := parseUIHierarchy(raw)
	if err != nil {
		return err
	}
	list := tree.findByResourceID(cfg.ListResourceID)
	if list == nil {
		log.Printf("[SCRAPE] list %s not on screen", cfg.ListResourceID)
		IncScrape("unchanged")
		return nil
	}
	date, rows := extractSignalBatch(list)
	if date == "" || len(rows) == 0 {
		log.Printf("[SCRAPE] no extractable batch (date=%q rows=%d)", date, len(rows))
		IncScrape("unchanged")
		return nil
	}
	if date == *lastDate {
		IncScrape("unchanged")
		return nil
	}

	if err := writeFileAtomic(cfg.SignalFile, []byte(strings.Join(rows, "\n"))); err != nil {
		return err
	}
	*lastDate = date
	log.Printf("[SCRAPE] wrote %d record(s) for batch %s to %s", len(rows), date, cfg.SignalFile)
	IncScrape("written")
	return nil
}

// writeFileAtomic writes via a temp file and rename in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".signals-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
