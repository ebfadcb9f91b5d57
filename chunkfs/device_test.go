package chunkfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sahib/nandfs/chunkfs/chunkio"
	"github.com/sahib/nandfs/util/testutil"
)

// Small chunks so the tests cross chunk borders early.
var testOptions = Options{
	MaxSlots:  4,
	ChunkSize: 64,
}

func withDevice(t *testing.T, opts Options, fn func(dev *Device, store *chunkio.MemStore)) {
	store := chunkio.NewMemStore(0, 0)

	dev, err := Mount(store, opts)
	require.Nil(t, err)

	fn(dev, store)

	if err := dev.Unmount(); err != nil && err != ErrUnmounted {
		t.Fatalf("unmount failed: %v", err)
	}
}

func TestDeviceMountBadStore(t *testing.T) {
	_, err := Mount(nil, DefaultOptions())
	require.NotNil(t, err)
}

func TestDeviceObjectLifecycle(t *testing.T) {
	withDevice(t, testOptions, func(dev *Device, store *chunkio.MemStore) {
		obj1, err := dev.NewObject()
		require.Nil(t, err)
		require.Equal(t, uint64(1), obj1.ID)

		obj2, err := dev.NewObject()
		require.Nil(t, err)
		require.Equal(t, uint64(2), obj2.ID)

		got, err := dev.Object(1)
		require.Nil(t, err)
		require.Equal(t, obj1, got)

		_, err = dev.Object(42)
		require.Equal(t, ErrNoSuchObject, err)

		objs, err := dev.Objects()
		require.Nil(t, err)
		require.Len(t, objs, 2)
		require.Equal(t, uint64(1), objs[0].ID)
		require.Equal(t, uint64(2), objs[1].ID)

		// Put a whole chunk into obj1, so the store holds its header
		// plus one data chunk besides the header of obj2:
		_, err = obj1.WriteAt(testutil.CreateDummyBuf(64), 0)
		require.Nil(t, err)
		require.Equal(t, 3, store.Len())

		require.Nil(t, obj1.Remove())
		require.Equal(t, 1, store.Len())

		_, err = dev.Object(1)
		require.Equal(t, ErrNoSuchObject, err)

		// The stale handle is dead too:
		_, err = obj1.WriteAt([]byte("x"), 0)
		require.Equal(t, ErrNoSuchObject, err)
		require.Equal(t, ErrNoSuchObject, obj1.Sync())

		objs, err = dev.Objects()
		require.Nil(t, err)
		require.Len(t, objs, 1)
	})
}

func TestDeviceUnmountTwice(t *testing.T) {
	store := chunkio.NewMemStore(0, 0)
	dev, err := Mount(store, testOptions)
	require.Nil(t, err)

	obj, err := dev.NewObject()
	require.Nil(t, err)

	require.Nil(t, dev.Unmount())
	require.Equal(t, ErrUnmounted, dev.Unmount())

	// Every entry point reports the unmount:
	_, err = dev.NewObject()
	require.Equal(t, ErrUnmounted, err)
	_, err = dev.Object(1)
	require.Equal(t, ErrUnmounted, err)
	_, err = dev.Objects()
	require.Equal(t, ErrUnmounted, err)
	require.Equal(t, ErrUnmounted, dev.Sync())

	_, err = obj.WriteAt([]byte("x"), 0)
	require.Equal(t, ErrUnmounted, err)
	_, err = obj.ReadAt(make([]byte, 1), 0)
	require.Equal(t, ErrUnmounted, err)
	require.Equal(t, ErrUnmounted, obj.Truncate(0))
	require.Equal(t, ErrUnmounted, obj.Remove())
}

func TestDeviceSyncWritesBack(t *testing.T) {
	withDevice(t, testOptions, func(dev *Device, store *chunkio.MemStore) {
		obj, err := dev.NewObject()
		require.Nil(t, err)

		payload := []byte("write-back, not write-through")
		_, err = obj.WriteAt(payload, 0)
		require.Nil(t, err)

		// The partial write only went to the cache so far:
		_, err = store.ReadChunk(obj.ID, 0)
		require.Equal(t, chunkio.ErrNoSuchChunk, err)
		require.Equal(t, 1, dev.Stats().DirtySlots)

		require.Nil(t, dev.Sync())
		require.Equal(t, 0, dev.Stats().DirtySlots)

		data, err := store.ReadChunk(obj.ID, 0)
		require.Nil(t, err)
		require.Equal(t, payload, data)

		// Sync keeps the chunk cached; the next read is a hit.
		hits := dev.Stats().CacheHits
		buf := make([]byte, len(payload))
		_, err = obj.ReadAt(buf, 0)
		require.Nil(t, err)
		require.Equal(t, payload, buf)
		require.True(t, dev.Stats().CacheHits > hits)
	})
}

func TestDeviceSyncFailure(t *testing.T) {
	// One chunk of budget and no reserve: the object header eats it,
	// the flush of the dirty chunk must fail.
	store := chunkio.NewMemStore(1, 0)
	dev, err := Mount(store, testOptions)
	require.Nil(t, err)

	obj, err := dev.NewObject()
	require.Nil(t, err)

	payload := []byte("does not fit")
	_, err = obj.WriteAt(payload, 0)
	require.Nil(t, err)

	require.NotNil(t, dev.Sync())
	require.Equal(t, 1, dev.Stats().DirtySlots)

	// Unmounting refuses to drop the dirty data and the device stays
	// usable; the data is still served from the cache.
	require.NotNil(t, dev.Unmount())

	buf := make([]byte, len(payload))
	_, err = obj.ReadAt(buf, 0)
	require.Nil(t, err)
	require.Equal(t, payload, buf)
}

func TestDevicePersistence(t *testing.T) {
	tmpDir := testutil.TempDir(t)
	defer testutil.Remover(t, tmpDir)

	store, err := chunkio.NewBadgerStore(tmpDir)
	require.Nil(t, err)

	dev, err := Mount(store, testOptions)
	require.Nil(t, err)

	obj, err := dev.NewObject()
	require.Nil(t, err)

	payload := testutil.CreateDummyBuf(200)
	_, err = obj.WriteAt(payload, 0)
	require.Nil(t, err)

	// Overwrite a small window so the reloaded content proves that
	// cached and stored state were merged correctly:
	patch := []byte("patched!")
	_, err = obj.WriteAt(patch, 150)
	require.Nil(t, err)
	copy(payload[150:], patch)

	require.Nil(t, dev.Unmount())

	store, err = chunkio.NewBadgerStore(tmpDir)
	require.Nil(t, err)

	dev, err = Mount(store, testOptions)
	require.Nil(t, err)

	obj, err = dev.Object(1)
	require.Nil(t, err)
	require.Equal(t, int64(200), obj.Size())

	buf := make([]byte, 200)
	_, err = obj.ReadAt(buf, 0)
	require.Nil(t, err)
	require.Equal(t, payload, buf)

	// Fresh objects continue behind the reloaded ones:
	obj2, err := dev.NewObject()
	require.Nil(t, err)
	require.Equal(t, uint64(2), obj2.ID)

	require.Nil(t, dev.Unmount())
}

func TestDeviceSkipsHeaderlessObjects(t *testing.T) {
	store := chunkio.NewMemStore(0, 0)

	// Simulate a crash that left data chunks but no header:
	require.Nil(t, store.WriteChunk(5, 0, []byte("orphan"), false))

	dev, err := Mount(store, testOptions)
	require.Nil(t, err)

	_, err = dev.Object(5)
	require.Equal(t, ErrNoSuchObject, err)

	// The orphaned id is burned, new objects do not adopt its chunks:
	obj, err := dev.NewObject()
	require.Nil(t, err)
	require.Equal(t, uint64(6), obj.ID)

	require.Nil(t, dev.Unmount())
}

func TestDeviceStats(t *testing.T) {
	withDevice(t, testOptions, func(dev *Device, store *chunkio.MemStore) {
		stats := dev.Stats()
		require.Equal(t, 4, stats.CacheSlots)
		require.Equal(t, 0, stats.Objects)
		require.Equal(t, int64(0), stats.CacheHits)

		obj, err := dev.NewObject()
		require.Nil(t, err)

		_, err = obj.WriteAt([]byte("abc"), 0)
		require.Nil(t, err)

		stats = dev.Stats()
		require.Equal(t, 1, stats.Objects)
		require.Equal(t, 1, stats.DirtySlots)

		// Rewriting the same chunk hits the cached slot:
		_, err = obj.WriteAt([]byte("xyz"), 0)
		require.Nil(t, err)
		require.True(t, dev.Stats().CacheHits > 0)
	})
}

func TestDeviceDisabledCache(t *testing.T) {
	opts := Options{MaxSlots: 0, ChunkSize: 64}

	withDevice(t, opts, func(dev *Device, store *chunkio.MemStore) {
		obj, err := dev.NewObject()
		require.Nil(t, err)

		// Without slots every write goes straight to the store:
		payload := []byte("uncached")
		_, err = obj.WriteAt(payload, 0)
		require.Nil(t, err)

		data, err := store.ReadChunk(obj.ID, 0)
		require.Nil(t, err)
		require.Equal(t, payload, data)

		require.Equal(t, 0, dev.Stats().DirtySlots)
		require.Equal(t, int64(0), dev.Stats().CacheHits)

		buf := make([]byte, len(payload))
		_, err = obj.ReadAt(buf, 0)
		require.Nil(t, err)
		require.Equal(t, payload, buf)
	})
}
