// Package chunkfs implements a small flash style file store: objects
// made of fixed size chunks, fronted by a tiny write-back cache for
// short operations.
//
// The cache is the interesting part. Reads and writes that only touch a
// part of a chunk land in a fixed pool of slot buffers and are written
// back to the chunk store when the slot gets evicted or the object is
// synced. Deleting or truncating an object invalidates its slots
// without writing them back.
package chunkfs

import (
	"encoding/binary"
	"sort"
	"sync"

	e "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sahib/nandfs/chunkfs/chunkio"
)

const (
	// DefaultChunkSize is used when Options leaves ChunkSize empty.
	// The typical payload size of one NAND page.
	DefaultChunkSize = 2048

	// DefaultMaxSlots is used by DefaultOptions.
	DefaultMaxSlots = 10

	// headerChunkID is the reserved chunk id that stores an object's
	// header (currently only its size). Regular data chunks can never
	// reach it, writeAt guards the file size long before.
	headerChunkID = ^uint32(0)
)

var objHeaderMagic = []byte("nobj")

// Options control how a device is mounted.
type Options struct {
	// MaxSlots is the number of cache slots. Zero disables the cache
	// completely, everything above MaxSlots is clamped.
	MaxSlots int

	// ChunkSize is the payload size of one chunk in bytes.
	// Zero means DefaultChunkSize.
	ChunkSize int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxSlots:  DefaultMaxSlots,
		ChunkSize: DefaultChunkSize,
	}
}

// Stats is a snapshot of the device's diagnostic counters.
type Stats struct {
	// CacheHits counts lookups that were answered from the cache.
	CacheHits int64

	// CacheSlots is the configured slot pool size.
	CacheSlots int

	// DirtySlots is the number of slots waiting for a flush.
	DirtySlots int

	// Objects is the number of live objects on the device.
	Objects int
}

// Device binds one chunk store to one cache manager and owns the
// canonical object table. All operations on it and on its objects are
// serialized by one device lock; the cache below assumes that.
type Device struct {
	mu        sync.Mutex
	store     chunkio.Store
	cache     *CacheManager
	objects   map[uint64]*Object
	nextID    uint64
	chunkSize int
	closed    bool
}

// storeWriter lets the cache flush through the store without knowing it.
type storeWriter struct {
	store chunkio.Store
}

func (w storeWriter) WriteChunk(obj *Object, chunkID uint32, data []byte, useReserve bool) error {
	return w.store.WriteChunk(obj.ID, chunkID, data, useReserve)
}

// Mount opens a device on top of `store`. Objects that previous mounts
// left in the store are picked up again.
func Mount(store chunkio.Store, opts Options) (*Device, error) {
	if store == nil {
		return nil, e.New("cannot mount a nil store")
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	cache, err := NewCacheManager(storeWriter{store}, opts.MaxSlots, chunkSize)
	if err != nil {
		return nil, err
	}

	dev := &Device{
		store:     store,
		cache:     cache,
		objects:   make(map[uint64]*Object),
		nextID:    1,
		chunkSize: chunkSize,
	}

	if err := dev.loadObjects(); err != nil {
		cache.Close()
		return nil, err
	}

	log.Debugf(
		"mounted device with %d objects, %d cache slots of %d bytes",
		len(dev.objects), cache.Cap(), chunkSize,
	)

	return dev, nil
}

func (d *Device) loadObjects() error {
	ids, err := d.store.Objects()
	if err != nil {
		return e.Wrap(err, "failed to list objects")
	}

	for _, id := range ids {
		// Ids of skipped objects must not be handed out again, their
		// leftover chunks would get adopted by the new object.
		if id >= d.nextID {
			d.nextID = id + 1
		}

		size, err := d.loadObjectHeader(id)
		if err == chunkio.ErrNoSuchChunk {
			// Chunks without a header happen when a process died
			// before the first sync. We cannot know the size then.
			log.Warnf("object %d has no header, skipping it", id)
			continue
		}

		if err != nil {
			return err
		}

		d.objects[id] = &Object{
			ID:   id,
			dev:  d,
			size: size,
		}
	}

	return nil
}

func (d *Device) loadObjectHeader(id uint64) (int64, error) {
	data, err := d.store.ReadChunk(id, headerChunkID)
	if err != nil {
		return 0, err
	}

	if len(data) != len(objHeaderMagic)+8 {
		return 0, e.Errorf("object %d has a damaged header", id)
	}

	for i, c := range objHeaderMagic {
		if data[i] != c {
			return 0, e.Errorf("object %d has a bad header magic", id)
		}
	}

	return int64(binary.LittleEndian.Uint64(data[len(objHeaderMagic):])), nil
}

// saveObjectHeader must be called with the device lock held.
func (d *Device) saveObjectHeader(o *Object) error {
	data := make([]byte, len(objHeaderMagic)+8)
	copy(data, objHeaderMagic)
	binary.LittleEndian.PutUint64(data[len(objHeaderMagic):], uint64(o.size))

	// Headers are tiny and important, let them use the reserve.
	err := d.store.WriteChunk(o.ID, headerChunkID, data, true)
	return e.Wrapf(err, "failed to save header of object %d", o.ID)
}

// NewObject creates a fresh, empty object on the device.
func (d *Device) NewObject() (*Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrUnmounted
	}

	o := &Object{
		ID:  d.nextID,
		dev: d,
	}

	if err := d.saveObjectHeader(o); err != nil {
		return nil, err
	}

	d.nextID++
	d.objects[o.ID] = o
	return o, nil
}

// Object looks up an existing object by id.
func (d *Device) Object(id uint64) (*Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrUnmounted
	}

	o, ok := d.objects[id]
	if !ok {
		return nil, ErrNoSuchObject
	}

	return o, nil
}

// Objects returns all live objects, sorted by id.
func (d *Device) Objects() ([]*Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrUnmounted
	}

	objs := make([]*Object, 0, len(d.objects))
	for _, o := range d.objects {
		objs = append(objs, o)
	}

	sort.Slice(objs, func(i, j int) bool {
		return objs[i].ID < objs[j].ID
	})

	return objs, nil
}

// remove must be called with the device lock held.
func (d *Device) remove(o *Object) error {
	d.cache.InvalidateObject(o)

	if err := d.store.DeleteObject(o.ID); err != nil {
		return e.Wrapf(err, "failed to delete object %d", o.ID)
	}

	delete(d.objects, o.ID)
	o.removed = true
	return nil
}

// Sync flushes all dirty cached chunks of all objects to the store.
// The cache contents stay valid.
func (d *Device) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrUnmounted
	}

	return d.syncAll()
}

// syncAll must be called with the device lock held.
func (d *Device) syncAll() error {
	if err := d.cache.FlushAll(false); err != nil {
		return err
	}

	for _, o := range d.objects {
		if err := d.saveObjectHeader(o); err != nil {
			return err
		}
	}

	return nil
}

// Unmount drains the cache, persists all object headers and closes the
// store. If draining fails the device stays mounted so the caller can
// retry; nothing dirty is thrown away.
func (d *Device) Unmount() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrUnmounted
	}

	if nDirty := d.cache.CountDirty(); nDirty > 0 {
		log.Debugf("unmount: flushing %d dirty slots", nDirty)
	}

	if err := d.syncAll(); err != nil {
		return err
	}

	d.cache.Close()
	d.closed = true
	return e.Wrap(d.store.Close(), "failed to close store")
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		CacheHits:  d.cache.Hits(),
		CacheSlots: d.cache.Cap(),
		DirtySlots: d.cache.CountDirty(),
		Objects:    len(d.objects),
	}
}

// ChunkSize returns the chunk payload size the device was mounted with.
func (d *Device) ChunkSize() int {
	return d.chunkSize
}
