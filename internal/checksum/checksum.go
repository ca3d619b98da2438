// Package checksum computes the content digest and size recorded for every
// manifest entry.
package checksum

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Register SHA-1 for DefaultFunction.
	_ "crypto/sha1"
)

// DefaultFunction is the digest launchers verify downloads with.
const DefaultFunction crypto.Hash = crypto.SHA1

var (
	// ErrUnreadable is returned when the file cannot be opened or read.
	ErrUnreadable = errors.New("artifact file is unreadable")

	errHashUnavailable = errors.New("hash function unavailable")
)

// Digest is the lowercase hex digest and byte length of a file.
type Digest struct {
	SHA1 string
	Size int64
}

// File streams the file at path through DefaultFunction.
func File(path string) (Digest, error) {
	if !DefaultFunction.Available() {
		return Digest{}, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Digest{}, fmt.Errorf("%s: %w: %w", path, ErrUnreadable, err)
	}

	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return Digest{}, fmt.Errorf("stat %s: %w: %w", path, ErrUnreadable, err)
	}

	if info.IsDir() {
		return Digest{}, fmt.Errorf("%s is a directory: %w", path, ErrUnreadable)
	}

	hasher := DefaultFunction.New()

	size, err := io.Copy(hasher, f)
	if err != nil {
		return Digest{}, fmt.Errorf("read %s: %w: %w", path, ErrUnreadable, err)
	}

	return Digest{
		SHA1: hex.EncodeToString(hasher.Sum(nil)),
		Size: size,
	}, nil
}

// Bytes digests an in-memory payload.
func Bytes(data []byte) Digest {
	hasher := DefaultFunction.New()
	_, _ = hasher.Write(data)

	return Digest{
		SHA1: hex.EncodeToString(hasher.Sum(nil)),
		Size: int64(len(data)),
	}
}

// IsSHA1Hex reports whether s is exactly 40 lowercase hex characters.
func IsSHA1Hex(s string) bool {
	if len(s) != hex.EncodedLen(DefaultFunction.Size()) {
		return false
	}

	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}

	return true
}
