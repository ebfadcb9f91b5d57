package chunkio

import (
	"sort"
	"sync"
)

type chunkKey struct {
	objID   uint64
	chunkID uint32
}

// MemStore is a Store that lives purely in memory.
//
// It supports a chunk budget similar to what a flash layer would have:
// `maxChunks` is the number of chunks that ordinary writes may occupy,
// `reserveChunks` is extra headroom that is only available to writes
// with useReserve set (the cache uses this for flushes, which must not
// fail just because the ordinary budget ran out). A maxChunks of zero
// means no limit at all.
type MemStore struct {
	mu            sync.Mutex
	chunks        map[chunkKey][]byte
	maxChunks     int
	reserveChunks int
	closed        bool
}

// NewMemStore creates an empty in-memory store with the given budget.
func NewMemStore(maxChunks, reserveChunks int) *MemStore {
	return &MemStore{
		chunks:        make(map[chunkKey][]byte),
		maxChunks:     maxChunks,
		reserveChunks: reserveChunks,
	}
}

func (ms *MemStore) ReadChunk(objID uint64, chunkID uint32) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	data, ok := ms.chunks[chunkKey{objID, chunkID}]
	if !ok {
		return nil, ErrNoSuchChunk
	}

	return append([]byte{}, data...), nil
}

func (ms *MemStore) WriteChunk(objID uint64, chunkID uint32, data []byte, useReserve bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	key := chunkKey{objID, chunkID}
	if _, ok := ms.chunks[key]; !ok && ms.maxChunks > 0 {
		// Overwrites take no new space, only fresh chunks count.
		budget := ms.maxChunks
		if useReserve {
			budget += ms.reserveChunks
		}

		if len(ms.chunks) >= budget {
			return ErrStoreFull
		}
	}

	ms.chunks[key] = append([]byte{}, data...)
	return nil
}

func (ms *MemStore) DeleteChunk(objID uint64, chunkID uint32) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	delete(ms.chunks, chunkKey{objID, chunkID})
	return nil
}

func (ms *MemStore) DeleteObject(objID uint64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	for key := range ms.chunks {
		if key.objID == objID {
			delete(ms.chunks, key)
		}
	}

	return nil
}

func (ms *MemStore) Objects() ([]uint64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	seen := make(map[uint64]bool)
	for key := range ms.chunks {
		seen[key.objID] = true
	}

	ids := make([]uint64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	return ids, nil
}

func (ms *MemStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.chunks = nil
	ms.closed = true
	return nil
}

// Len returns the number of chunks currently stored.
func (ms *MemStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return len(ms.chunks)
}
