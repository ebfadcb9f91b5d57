// Utility functions that would not hurt the simplicity of Go
// if they would be in the builtins/stdlib.
package util

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Closer closes c. If that fails, it will log the error.
// The intended usage is for convenient defer calls only!
func Closer(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warningf("failed to close: %v", err)
	}
}

// Returns the minimum of a and b.
func Min(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// Returns the maximum of a and b.
func Max(a, b int) int {
	if a < b {
		return b
	}

	return a
}

// Clamps x into [lo, hi]
func Clamp(x, lo, hi int) int {
	return Max(lo, Min(x, hi))
}

// Like Min() but for int64
func Min64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}

// Like Max() but for int64
func Max64(a, b int64) int64 {
	if a < b {
		return b
	}

	return a
}

// Like Clamp() but for int64
func Clamp64(x, lo, hi int64) int64 {
	return Max64(lo, Min64(x, hi))
}
