package operations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/kebairia/mongomail/internal/failure"
)

// LockFilename is created in the backup directory while a run is active.
const LockFilename = ".mongomail.lock"

// ErrLocked indicates another run holds the backup directory.
var ErrLocked = errors.New("backup directory is locked by another run")

// RunLock serializes runs against one backup directory.
type RunLock struct {
	lock *flock.Flock
}

// NewRunLock prepares a lock on dir/.mongomail.lock. Nothing is created
// until Acquire.
func NewRunLock(dir string) *RunLock {
	return &RunLock{lock: flock.New(filepath.Join(dir, LockFilename))}
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.lock.Path()
}

// Acquire takes the lock without waiting. A held lock is a lock failure.
func (l *RunLock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return failure.Lock(fmt.Sprintf("lock %s", l.Path()), err)
	}
	if !ok {
		return failure.Lock(l.Path(), ErrLocked)
	}
	return nil
}

// Release unlocks and removes the lock file.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.Path(), err)
	}
	if err := os.Remove(l.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
