package chunkfs

import (
	e "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxSlots is the hard upper bound for the slot pool size.
	// Configured capacities above this are clamped.
	MaxSlots = 20

	// useCounterMax is where the recency counter gets reset to avoid
	// overflow. Far below the int64 limit, but there is no reason to
	// let the counter grow into numbers no slot will ever hold.
	useCounterMax = 100000000
)

// ChunkWriter is the write-through side of the cache. Flushing a dirty
// slot pushes its payload through this interface. The device layer
// implements it on top of a chunkio.Store.
type ChunkWriter interface {
	WriteChunk(obj *Object, chunkID uint32, data []byte, useReserve bool) error
}

// Slot is one buffer of the cache pool, holding (a prefix of) one chunk.
type Slot struct {
	owner   *Object
	chunkID uint32
	data    []byte
	nBytes  int
	dirty   bool
	locked  bool
	lastUse int64
}

// Data returns the valid part of the slot's buffer.
func (s *Slot) Data() []byte {
	return s.data[:s.nBytes]
}

// bind takes ownership of a freshly grabbed slot for (obj, chunkID).
// The buffer is zeroed so that stale bytes of the previous owner can
// never shine through short reads.
func (s *Slot) bind(obj *Object, chunkID uint32) {
	for i := range s.data {
		s.data[i] = 0
	}

	s.owner = obj
	s.chunkID = chunkID
	s.nBytes = 0
	s.dirty = false
}

func (s *Slot) free() {
	s.owner = nil
	s.dirty = false
}

// CacheManager is a small pool of chunk buffers that absorbs short,
// chunk-sized reads and writes before they hit the store. One instance
// serves one device and is serialized by the device lock.
//
// The pool is a plain array that gets scanned linearly. With at most
// MaxSlots entries that is both simpler and faster than an indexed
// structure, and it keeps eviction order deterministic. Do not swap
// this for a fancy caching library, the tests pin the scan behavior.
type CacheManager struct {
	writer     ChunkWriter
	slots      []*Slot
	useCounter int64
	hits       int64
}

// NewCacheManager builds a pool of `capacity` slots of `chunkSize` bytes
// each. A capacity of zero (or less) yields a valid manager that acts as
// if every lookup missed and no slot was ever free: the cache is off.
func NewCacheManager(writer ChunkWriter, capacity, chunkSize int) (*CacheManager, error) {
	if capacity < 0 {
		capacity = 0
	}

	if capacity > MaxSlots {
		log.Debugf("cache: clamping capacity %d to %d", capacity, MaxSlots)
		capacity = MaxSlots
	}

	if capacity > 0 {
		if chunkSize <= 0 {
			return nil, e.Errorf("bad chunk size: %d", chunkSize)
		}

		if writer == nil {
			return nil, e.New("cache needs a chunk writer to flush to")
		}
	}

	slots := make([]*Slot, capacity)
	for idx := range slots {
		slots[idx] = &Slot{data: make([]byte, chunkSize)}
	}

	return &CacheManager{
		writer: writer,
		slots:  slots,
	}, nil
}

// Cap returns the number of slots in the pool.
func (cm *CacheManager) Cap() int {
	return len(cm.slots)
}

// Hits returns how many lookups were answered from the cache so far.
func (cm *CacheManager) Hits() int64 {
	return cm.hits
}

// Find returns the slot currently holding (obj, chunkID) or nil.
// This is the only place the hit counter moves. The recency counter
// is not touched, that only happens in MarkUsed.
func (cm *CacheManager) Find(obj *Object, chunkID uint32) *Slot {
	if obj == nil {
		return nil
	}

	for _, s := range cm.slots {
		if s.owner == obj && s.chunkID == chunkID {
			cm.hits++
			return s
		}
	}

	return nil
}

// Grab hands out a free slot, evicting the least recently used unlocked
// slot if it has to. A dirty victim is written back first; if that write
// fails the victim stays dirty and owned and the error is returned.
// When the cache is disabled or every slot is locked, Grab fails with
// ErrNoSlot and the caller should do uncached I/O for this call.
func (cm *CacheManager) Grab() (*Slot, error) {
	for _, s := range cm.slots {
		if s.owner == nil {
			return s, nil
		}
	}

	// All slots taken, pick the stalest one that nobody holds locked.
	// Ties go to the earlier slot so eviction stays deterministic.
	var victim *Slot
	for _, s := range cm.slots {
		if s.locked {
			continue
		}

		if victim == nil || s.lastUse < victim.lastUse {
			victim = s
		}
	}

	if victim == nil {
		return nil, ErrNoSlot
	}

	log.Debugf(
		"cache: evicting chunk %d of object %d (dirty %v)",
		victim.chunkID, victim.owner.ID, victim.dirty,
	)

	if err := cm.FlushOne(victim, true); err != nil {
		return nil, err
	}

	return victim, nil
}

// MarkUsed moves `s` to the front of the recency order. Every hit and
// every fresh allocation that is about to be read or written goes
// through here. `write` marks the slot dirty.
func (cm *CacheManager) MarkUsed(s *Slot, write bool) {
	if s == nil {
		return
	}

	if cm.useCounter < 0 || cm.useCounter > useCounterMax {
		// Reset all slots to "equally stale" so the relative order
		// is the scan order again and nobody is artificially fresh.
		for _, slot := range cm.slots {
			slot.lastUse = 0
		}

		cm.useCounter = 0
	}

	cm.useCounter++
	s.lastUse = cm.useCounter

	if write {
		s.dirty = true
	}
}

// FlushOne writes a dirty slot back through the chunk writer and, when
// `discard` is set, frees the slot afterwards. Locked slots are left
// alone entirely. A failed write-through keeps the slot dirty and owned,
// the data is not lost and a later flush will retry.
func (cm *CacheManager) FlushOne(s *Slot, discard bool) error {
	if s == nil || s.locked {
		return nil
	}

	if s.owner != nil && s.dirty {
		err := cm.writer.WriteChunk(s.owner, s.chunkID, s.data[:s.nBytes], true)
		if err != nil {
			return e.Wrapf(
				err,
				"failed to flush chunk %d of object %d",
				s.chunkID, s.owner.ID,
			)
		}

		s.dirty = false
	}

	if discard {
		s.free()
	}

	return nil
}

// FlushObject flushes every slot owned by `obj`. It keeps going when a
// single slot fails so clean slots still get written or discarded; the
// first error wins.
func (cm *CacheManager) FlushObject(obj *Object, discard bool) error {
	if len(cm.slots) < 1 || obj == nil {
		return nil
	}

	var firstErr error
	for _, s := range cm.slots {
		if s.owner != obj {
			continue
		}

		if err := cm.FlushOne(s, discard); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// FlushAll drains every dirty slot, one object at a time. Flushing
// object-wise gives the writer all sibling chunks of an object in one
// go, which tends to be cheaper for it than hopping between objects.
// The first failing object aborts the drain, the rest stays dirty.
func (cm *CacheManager) FlushAll(discard bool) error {
	for {
		var obj *Object
		for _, s := range cm.slots {
			if s.owner != nil && s.dirty && !s.locked {
				obj = s.owner
				break
			}
		}

		if obj == nil {
			return nil
		}

		if err := cm.FlushObject(obj, discard); err != nil {
			return err
		}
	}
}

// InvalidateChunk drops the cached copy of (obj, chunkID) without
// writing it back. Used after a whole-chunk overwrite: the canonical
// data just went to the store, a cached short copy is only stale now.
func (cm *CacheManager) InvalidateChunk(obj *Object, chunkID uint32) {
	if s := cm.Find(obj, chunkID); s != nil {
		s.free()
	}
}

// InvalidateObject drops every cached chunk of `obj` without flushing.
// This is the delete/truncate path: the chunks are going away, flushing
// them would write into storage that is already logically gone.
func (cm *CacheManager) InvalidateObject(obj *Object) {
	if obj == nil {
		return
	}

	for _, s := range cm.slots {
		if s.owner == obj {
			s.free()
		}
	}
}

// CountDirty returns the number of dirty slots. No side effects.
func (cm *CacheManager) CountDirty() int {
	nDirty := 0
	for _, s := range cm.slots {
		if s.owner != nil && s.dirty {
			nDirty++
		}
	}

	return nDirty
}

// IsObjectDirty tells if any slot of `obj` still waits for a flush.
func (cm *CacheManager) IsObjectDirty(obj *Object) bool {
	for _, s := range cm.slots {
		if s.owner == obj && s.dirty {
			return true
		}
	}

	return false
}

// Close drops the slot pool. It does not flush, callers drain the cache
// before closing. Closing twice or closing a disabled cache is fine.
func (cm *CacheManager) Close() error {
	cm.slots = nil
	return nil
}
