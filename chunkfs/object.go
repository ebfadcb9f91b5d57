package chunkfs

import (
	"fmt"
)

// Object is a single file-like entity on a device. It has an id, a size
// and chunk payloads in the store; nothing else. Directory structure or
// naming is up to whatever sits above.
//
// Objects are handed out by their device and must be compared by
// pointer: the device keeps one canonical *Object per id, which is what
// makes the identity checks in the cache work.
type Object struct {
	// ID is the stable identity of this object on its device.
	ID uint64

	dev     *Device
	size    int64
	removed bool
}

func (o *Object) String() string {
	return fmt.Sprintf("<object %d, %d bytes>", o.ID, o.size)
}

// Size returns the current byte size of the object.
func (o *Object) Size() int64 {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	return o.size
}

// ReadAt reads len(buf) bytes starting at `off`, in the manner of
// io.ReaderAt. Short reads at the end of the object return io.EOF.
func (o *Object) ReadAt(buf []byte, off int64) (int, error) {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	if err := o.usable(); err != nil {
		return 0, err
	}

	return o.dev.readAt(o, buf, off)
}

// WriteAt writes len(buf) bytes starting at `off`, in the manner of
// io.WriterAt. Writing past the current end grows the object; the gap
// reads back as zeros. Short writes go through the cache, whole chunk
// writes go directly to the store.
func (o *Object) WriteAt(buf []byte, off int64) (int, error) {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	if err := o.usable(); err != nil {
		return 0, err
	}

	return o.dev.writeAt(o, buf, off)
}

// Truncate resizes the object to `size` bytes. Shrinking discards all
// cached chunks of the object without flushing and removes the chunks
// past the new end from the store. Growing only changes the size.
func (o *Object) Truncate(size int64) error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	if err := o.usable(); err != nil {
		return err
	}

	return o.dev.truncate(o, size)
}

// Sync writes all dirty cached chunks of this object back to the store.
// The slots stay cached and clean afterwards.
func (o *Object) Sync() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	if err := o.usable(); err != nil {
		return err
	}

	if err := o.dev.cache.FlushObject(o, false); err != nil {
		return err
	}

	return o.dev.saveObjectHeader(o)
}

// Remove deletes the object: cached chunks are dropped without flushing,
// stored chunks are deleted, the id becomes invalid.
func (o *Object) Remove() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()

	if err := o.usable(); err != nil {
		return err
	}

	return o.dev.remove(o)
}

// usable must be called with the device lock held.
func (o *Object) usable() error {
	if o.dev.closed {
		return ErrUnmounted
	}

	if o.removed {
		return ErrNoSuchObject
	}

	return nil
}
