// FILE: fingerprint.go
// Package main – Single-value store for the last-acted-upon signal batch.
//
// A cycle runs trading logic only when the current batch fingerprint differs
// from the stored one. The fingerprint is the sha256 of the raw signal file
// bytes — opaque, deterministic, and independent of how the upstream scraper
// stamps its batches. The store is a single file, written via temp+rename so
// a crash never leaves a torn value.

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// computeFingerprint hashes a raw signal batch into its identity string.
func computeFingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// FingerprintStore is a durable single-value slot.
type FingerprintStore interface {
	Read() (string, error)
	Write(value string) error
}

type fileFingerprintStore struct {
	path string
}

func NewFileFingerprintStore(path string) FingerprintStore {
	return &fileFingerprintStore{path: path}
}

// Read returns the stored fingerprint, or "" when none has been written yet.
func (s *fileFingerprintStore) Read() (string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *fileFingerprintStore) Write(value string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".fingerprint-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
