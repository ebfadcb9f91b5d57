// Package chunkio provides the chunk level storage below the cache layer.
//
// A Store keeps the payload of (object, chunk) pairs. It does not know
// anything about file sizes or caching, it only moves chunk payloads
// in and out of some backend. Backends can be stacked: the compression
// and encryption layers are stores themselves that wrap another store.
package chunkio

import (
	"errors"
)

var (
	// ErrNoSuchChunk is returned when reading a chunk that was never written.
	// Callers usually treat this as a hole and read zeros.
	ErrNoSuchChunk = errors.New("no such chunk")

	// ErrStoreFull is returned when the store ran out of space and the
	// write was not allowed to dig into the reserve.
	ErrStoreFull = errors.New("store is full")

	// ErrStoreClosed is returned when using a store after Close().
	ErrStoreClosed = errors.New("store is closed")
)

// Store is the interface all chunk storage backends implement.
type Store interface {
	// ReadChunk returns the payload stored for (objID, chunkID).
	// The returned slice is owned by the caller. Reading a chunk
	// that was never written returns ErrNoSuchChunk.
	ReadChunk(objID uint64, chunkID uint32) ([]byte, error)

	// WriteChunk stores `data` as the new payload of (objID, chunkID),
	// replacing any previous payload. If the store has a space budget
	// and it is exhausted, the write fails with ErrStoreFull unless
	// useReserve allows it to eat into the reserve.
	WriteChunk(objID uint64, chunkID uint32, data []byte, useReserve bool) error

	// DeleteChunk removes the payload of (objID, chunkID).
	// Deleting a chunk that does not exist is not an error.
	DeleteChunk(objID uint64, chunkID uint32) error

	// DeleteObject removes all chunks stored for objID.
	DeleteObject(objID uint64) error

	// Objects lists the ids of all objects that have at least one chunk.
	Objects() ([]uint64, error)

	// Close flushes and tears down the backend.
	Close() error
}
