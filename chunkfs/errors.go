package chunkfs

import (
	"errors"

	e "github.com/pkg/errors"
)

var (
	// ErrNoSlot is returned by Grab when no slot can be handed out,
	// either because the cache is disabled or because every slot is
	// currently locked. Callers fall back to uncached I/O then, this
	// is not a hard failure.
	ErrNoSlot = errors.New("no cache slot available")

	// ErrUnmounted is returned when using a device after Unmount.
	ErrUnmounted = errors.New("device is not mounted")

	// ErrNoSuchObject is returned when an object was deleted or the
	// id was never handed out.
	ErrNoSuchObject = errors.New("no such object")

	// ErrTooLarge is returned when a file offset would need a chunk id
	// beyond the representable range.
	ErrTooLarge = errors.New("offset is past the maximum object size")
)

// IsErrNoSlot asserts that `err` only means "cache currently unavailable".
func IsErrNoSlot(err error) bool {
	return e.Cause(err) == ErrNoSlot
}
