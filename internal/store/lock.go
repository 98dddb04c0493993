package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// lockPollInterval is how often a contended lock is retried.
const lockPollInterval = 10 * time.Millisecond

// errWouldBlock is returned by the platform tryLock when another open file
// description holds a conflicting lock.
var errWouldBlock = errors.New("lock is held elsewhere")

// fileLock is an advisory lock on the vault.lock sidecar. The lock is tied to
// the open file, so two handles in one process contend just like two
// processes do.
type fileLock struct {
	f *os.File
}

// acquireLock blocks until the lock is held, ctx is done or timeout elapses.
// A non-positive timeout means a single attempt.
func acquireLock(ctx context.Context, path string, exclusive bool, timeout time.Duration) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, fileMode)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := tryLock(f, exclusive)
		if err == nil {
			return &fileLock{f: f}, nil
		}
		if !errors.Is(err, errWouldBlock) {
			f.Close()
			return nil, fmt.Errorf("lock vault: %w", err)
		}
		if !time.Now().Before(deadline) {
			f.Close()
			return nil, fmt.Errorf("%w after %s", ErrLockTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// release drops the lock and closes the file. Closing alone would release
// the lock too; unlocking first keeps the order explicit.
func (l *fileLock) release() error {
	unlockErr := unlock(l.f)
	closeErr := l.f.Close()
	return errors.Join(unlockErr, closeErr)
}
