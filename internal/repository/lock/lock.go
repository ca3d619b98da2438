// Package lock keeps two generators from writing into the same output
// directory at once. The lock file records the PID and executable of its
// holder; a lock whose holder is no longer in the process table is stale.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/launcher-manifest/internal/logger"
)

// Filename is created inside the guarded directory.
const Filename = ".launcher-manifest.lock"

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

var (
	// ErrLocked is returned when a live process holds the lock.
	ErrLocked = errors.New("another manifest generation is running")

	errMalformedLock = errors.New("malformed lock file")
)

// Holder identifies the process owning a lock.
type Holder struct {
	PID        int
	Executable string
}

// Lock is a held generation lock.
type Lock struct {
	// path is the lock file location.
	path string
}

// Acquire takes the lock in dir, replacing a stale one.
func Acquire(ctx context.Context, dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(filepath.Clean(dir), Filename)

	holder, err := readHolder(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		logger.WarnKV(ctx, "Replacing unreadable lock file", "path", path, "error", err)
	case holder.PID != os.Getpid() && isAlive(holder):
		return nil, fmt.Errorf("%w: pid %d (%s) holds %s", ErrLocked, holder.PID, holder.Executable, path)
	default:
		logger.InfoKV(ctx, "Removing stale lock", "path", path, "pid", holder.PID)
	}

	if !errors.Is(err, os.ErrNotExist) {
		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	if err = writeHolder(path, currentHolder()); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s appeared concurrently", ErrLocked, path)
		}

		return nil, err
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// isAlive reports whether holder's PID still runs the same executable.
// A reused PID belonging to another program does not count.
func isAlive(holder Holder) bool {
	if holder.PID <= 0 {
		return false
	}

	process, err := ps.FindProcess(holder.PID)
	if err != nil || process == nil {
		return false
	}

	return holder.Executable == "" || process.Executable() == holder.Executable
}

func currentHolder() Holder {
	holder := Holder{PID: os.Getpid()}

	if process, err := ps.FindProcess(holder.PID); err == nil && process != nil {
		holder.Executable = process.Executable()
	}

	return holder
}

func readHolder(path string) (Holder, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Holder{}, err
	}

	pidText, executable, _ := strings.Cut(strings.TrimSpace(string(contents)), "\n")

	pid, err := strconv.Atoi(strings.TrimSpace(pidText))
	if err != nil {
		return Holder{}, fmt.Errorf("%w: %w", errMalformedLock, err)
	}

	return Holder{
		PID:        pid,
		Executable: strings.TrimSpace(executable),
	}, nil
}

// writeHolder creates the lock exclusively.
func writeHolder(path string, holder Holder) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("create lock: %w", err)
	}

	_, err = fmt.Fprintf(f, "%d\n%s\n", holder.PID, holder.Executable)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("write lock: %w", err)
	}

	return nil
}
