// FILE: device.go
// Package main – Thin wrapper around the adb binary for the scrape loop.
//
// The scrape collaborator drives the brokerage app on an attached Android
// device (or emulator) to read the position-history list. adb is invoked as a
// subprocess; each helper shells out once and returns trimmed stdout.
//
// RunWithRetry handles the flaky parts (uiautomator dump failing while an
// animation is in flight): a bounded number of attempts with growing delays,
// and a recovery callback between attempts that returns the device to a known
// state (home screen, relaunch the target app).

package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
)

// AdbClient runs adb commands against one device.
type AdbClient struct {
	Device string
	Bin    string // defaults to "adb"
}

func NewAdbClient(device string) *AdbClient {
	return &AdbClient{Device: device, Bin: "adb"}
}

// Run executes `adb [-s device] args...` and returns trimmed stdout.
func (c *AdbClient) Run(ctx context.Context, args ...string) (string, error) {
	bin := c.Bin
	if bin == "" {
		bin = "adb"
	}
	full := args
	if c.Device != "" {
		full = append([]string{"-s", c.Device}, args...)
	}
	out, err := exec.CommandContext(ctx, bin, full...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// RunWithRetry runs the command up to maxAttempts times. Between failed
// attempts it invokes recovery (when non-nil) and sleeps with exponential
// backoff. The last error is returned when every attempt fails.
func (c *AdbClient) RunWithRetry(ctx context.Context, maxAttempts int, recovery func(context.Context), args ...string) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := &backoff.Backoff{Min: time.Second, Max: 10 * time.Second, Factor: 2, Jitter: true}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := c.Run(ctx, args...)
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Printf("[DEVICE] attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt == maxAttempts {
			break
		}
		if recovery != nil {
			recovery(ctx)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay.Duration()):
		}
	}
	return "", lastErr
}

// --- app/session helpers ---

func (c *AdbClient) Shell(ctx context.Context, cmd ...string) (string, error) {
	return c.Run(ctx, append([]string{"shell"}, cmd...)...)
}

func (c *AdbClient) Pull(ctx context.Context, remote, local string) error {
	_, err := c.Run(ctx, "pull", remote, local)
	return err
}

func (c *AdbClient) StartApp(ctx context.Context, pkg, activity string) error {
	_, err := c.Shell(ctx, "am", "start", "-n", pkg+"/"+activity)
	return err
}

func (c *AdbClient) PressHome(ctx context.Context) error {
	_, err := c.Shell(ctx, "input", "keyevent", "KEYCODE_HOME")
	return err
}

func (c *AdbClient) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	_, err := c.Shell(ctx, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durationMs))
	return err
}
