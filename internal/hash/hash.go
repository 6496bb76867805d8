// Package hash provides file hashing for content comparison.
//
// modlay uses SHA-256 to tell whether a projected file in the installation
// directory still matches the overlay's managed copy (drift detection).
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Hasher provides an abstraction for file hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(path string) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256 over an afero filesystem.
type SHA256Hasher struct {
	fs afero.Fs
}

// NewSHA256Hasher creates a new SHA256Hasher reading through fs.
func NewSHA256Hasher(fs afero.Fs) *SHA256Hasher {
	return &SHA256Hasher{fs: fs}
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sum := sha256.New()
	if _, err := io.Copy(sum, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(sum.Sum(nil)), nil
}

// SameContent reports whether two files hash identically.
func SameContent(h Hasher, a, b string) (bool, error) {
	ha, err := h.HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := h.HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// FakeHasher implements Hasher with predetermined hashes for testing.
type FakeHasher struct {
	hashes map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{hashes: make(map[string]string)}
}

// SetHash sets the hash returned for path.
func (h *FakeHasher) SetHash(path, hash string) {
	h.hashes[path] = hash
}

// HashFile returns the predetermined hash for path, or "fakehash".
func (h *FakeHasher) HashFile(path string) (string, error) {
	if hash, ok := h.hashes[path]; ok {
		return hash, nil
	}
	return "fakehash", nil
}
