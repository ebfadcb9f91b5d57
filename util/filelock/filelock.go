// filelock guards a repository folder against concurrent use
// by more than one process.
package filelock

import (
	"github.com/nightlyone/lockfile"
)

// TryAcquire tries to acquire the lock at `lockPath`.
// It will not block when the lock is already taken.
func TryAcquire(lockPath string) error {
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return err
	}

	return lock.TryLock()
}

// Release will remove the lockfile.
func Release(lockPath string) error {
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return err
	}

	return lock.Unlock()
}
