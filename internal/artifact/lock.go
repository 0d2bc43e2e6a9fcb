package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockFileName = ".build.lock"

	// staleLockThreshold is the maximum age of a lock before it is
	// considered abandoned by an interrupted build.
	staleLockThreshold = 10 * time.Minute
)

// ErrBuildInProgress indicates another build holds the set's lock.
var ErrBuildInProgress = errors.New("build lock exists: another build for this version may be in progress")

// BuildLock guards a set directory while the producer writes it.
// Concurrent builds of the same version fail fast instead of interleaving
// writes into one directory.
type BuildLock struct {
	path string
}

// AcquireBuildLock takes the lock for a set directory.
// Uses O_CREATE|O_EXCL for atomic lock creation.
func AcquireBuildLock(dir string) (*BuildLock, error) {
	lockPath := filepath.Join(dir, lockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			// Lock exists - reclaim it only if stale.
			if isLockStale(lockPath) {
				os.Remove(lockPath)
				file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
				if err != nil {
					return nil, ErrBuildInProgress
				}
			} else {
				return nil, ErrBuildInProgress
			}
		} else {
			return nil, fmt.Errorf("create build lock: %w", err)
		}
	}

	// The lock's presence is its content; the handle is not kept open.
	if err := file.Close(); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("close build lock: %w", err)
	}

	return &BuildLock{path: lockPath}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *BuildLock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release build lock: %w", err)
	}
	return nil
}

// isLockStale reports whether an existing lock is older than the
// staleness threshold.
func isLockStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockThreshold
}
