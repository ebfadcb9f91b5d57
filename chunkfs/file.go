package chunkfs

import (
	"io"

	e "github.com/pkg/errors"

	"github.com/sahib/nandfs/chunkfs/chunkio"
	"github.com/sahib/nandfs/util"
)

// This file implements the byte range side of the device: splitting
// reads and writes into per chunk spans and deciding which of them go
// through the cache. The rules are:
//
//   - Spans covering a whole chunk bypass the cache. Bulk I/O would
//     only thrash the few slots we have; a whole chunk write makes any
//     cached copy stale, so it gets invalidated.
//   - Partial spans go through the cache. On a miss a slot is grabbed
//     and filled with the chunk's current bytes first.
//   - When no slot is available the span falls back to uncached
//     read-modify-write against the store. Slower, never wrong.
//
// All functions here expect the device lock to be held.

func (d *Device) chunkPos(off int64) (uint32, int) {
	return uint32(off / int64(d.chunkSize)), int(off % int64(d.chunkSize))
}

// chunkExtent returns how many bytes of `chunkID` are below o's size.
func (d *Device) chunkExtent(o *Object, chunkID uint32) int {
	off := int64(chunkID) * int64(d.chunkSize)
	return int(util.Clamp64(o.size-off, 0, int64(d.chunkSize)))
}

func (d *Device) readAt(o *Object, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, e.New("negative offset")
	}

	if len(buf) == 0 {
		return 0, nil
	}

	if off >= o.size {
		return 0, io.EOF
	}

	total := int(util.Min64(int64(len(buf)), o.size-off))

	n := 0
	for n < total {
		chunkID, start := d.chunkPos(off)
		count := util.Min(total-n, d.chunkSize-start)

		if err := d.readChunkSpan(o, chunkID, start, buf[n:n+count]); err != nil {
			return n, err
		}

		n += count
		off += int64(count)
	}

	if n < len(buf) {
		return n, io.EOF
	}

	return n, nil
}

func (d *Device) writeAt(o *Object, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, e.New("negative offset")
	}

	if len(buf) == 0 {
		return 0, nil
	}

	// Data chunk ids have to stay below the reserved header chunk:
	lastChunk := (off + int64(len(buf)) - 1) / int64(d.chunkSize)
	if lastChunk >= int64(headerChunkID) {
		return 0, ErrTooLarge
	}

	n := 0
	for n < len(buf) {
		chunkID, start := d.chunkPos(off)
		count := util.Min(len(buf)-n, d.chunkSize-start)

		if err := d.writeChunkSpan(o, chunkID, start, buf[n:n+count]); err != nil {
			return n, err
		}

		n += count
		off += int64(count)

		// Grow as we go; later spans compute their fill from it.
		if off > o.size {
			o.size = off
		}
	}

	return n, nil
}

func (d *Device) readChunkSpan(o *Object, chunkID uint32, start int, dst []byte) error {
	if s := d.cache.Find(o, chunkID); s != nil {
		d.cache.MarkUsed(s, false)
		copy(dst, s.data[start:start+len(dst)])
		return nil
	}

	if start == 0 && len(dst) == d.chunkSize {
		// Whole chunk read on a miss: not worth a slot.
		return d.readChunkUncached(o, chunkID, start, dst)
	}

	s, err := d.cache.Grab()
	if err != nil {
		if IsErrNoSlot(err) {
			return d.readChunkUncached(o, chunkID, start, dst)
		}

		return err
	}

	s.bind(o, chunkID)
	s.locked = true

	if err := d.fillSlot(o, chunkID, s); err != nil {
		s.locked = false
		s.free()
		return err
	}

	d.cache.MarkUsed(s, false)
	copy(dst, s.data[start:start+len(dst)])
	s.locked = false
	return nil
}

func (d *Device) writeChunkSpan(o *Object, chunkID uint32, start int, p []byte) error {
	if start == 0 && len(p) == d.chunkSize {
		// Whole chunk write: straight to the store. Whatever short
		// copy the cache had of this chunk is stale now.
		if err := d.store.WriteChunk(o.ID, chunkID, p, false); err != nil {
			return e.Wrapf(err, "failed to write chunk %d of object %d", chunkID, o.ID)
		}

		d.cache.InvalidateChunk(o, chunkID)
		return nil
	}

	s := d.cache.Find(o, chunkID)
	if s == nil {
		freshSlot, err := d.cache.Grab()
		if err != nil {
			if IsErrNoSlot(err) {
				return d.writeChunkUncached(o, chunkID, start, p)
			}

			return err
		}

		freshSlot.bind(o, chunkID)
		freshSlot.locked = true

		if err := d.fillSlot(o, chunkID, freshSlot); err != nil {
			freshSlot.locked = false
			freshSlot.free()
			return err
		}

		s = freshSlot
	} else {
		s.locked = true
	}

	copy(s.data[start:], p)
	s.nBytes = util.Max(s.nBytes, start+len(p))
	d.cache.MarkUsed(s, true)
	s.locked = false
	return nil
}

// fillSlot loads the current bytes of (o, chunkID) into a freshly bound
// slot. Holes stay zero, which bind already took care of.
func (d *Device) fillSlot(o *Object, chunkID uint32, s *Slot) error {
	existing := d.chunkExtent(o, chunkID)
	if existing == 0 {
		return nil
	}

	data, err := d.store.ReadChunk(o.ID, chunkID)
	if err == chunkio.ErrNoSuchChunk {
		// A hole below the object size, e.g. from growing truncates.
		s.nBytes = existing
		return nil
	}

	if err != nil {
		return e.Wrapf(err, "failed to fill chunk %d of object %d", chunkID, o.ID)
	}

	copy(s.data[:existing], data)
	s.nBytes = existing
	return nil
}

func (d *Device) readChunkUncached(o *Object, chunkID uint32, start int, dst []byte) error {
	for i := range dst {
		dst[i] = 0
	}

	data, err := d.store.ReadChunk(o.ID, chunkID)
	if err == chunkio.ErrNoSuchChunk {
		return nil
	}

	if err != nil {
		return e.Wrapf(err, "failed to read chunk %d of object %d", chunkID, o.ID)
	}

	if start < len(data) {
		copy(dst, data[start:])
	}

	return nil
}

func (d *Device) writeChunkUncached(o *Object, chunkID uint32, start int, p []byte) error {
	tmp := make([]byte, d.chunkSize)

	existing := d.chunkExtent(o, chunkID)
	if existing > 0 {
		data, err := d.store.ReadChunk(o.ID, chunkID)
		if err != nil && err != chunkio.ErrNoSuchChunk {
			return e.Wrapf(err, "failed to read chunk %d of object %d", chunkID, o.ID)
		}

		copy(tmp[:existing], data)
	}

	copy(tmp[start:], p)
	nBytes := util.Max(existing, start+len(p))

	err := d.store.WriteChunk(o.ID, chunkID, tmp[:nBytes], false)
	return e.Wrapf(err, "failed to write chunk %d of object %d", chunkID, o.ID)
}

// truncate must be called with the device lock held.
func (d *Device) truncate(o *Object, size int64) error {
	if size < 0 {
		return e.New("negative size")
	}

	if size == o.size {
		return nil
	}

	if size > o.size {
		// Growing is only bookkeeping, the gap reads as zeros. The new
		// tail still has to stay below the reserved header chunk.
		if (size-1)/int64(d.chunkSize) >= int64(headerChunkID) {
			return ErrTooLarge
		}

		o.size = size
		return d.saveObjectHeader(o)
	}

	// Shrinking throws the cached chunks away without flushing; what
	// is past the cut is gone, what is below it still sits (possibly
	// shorter) in the store.
	d.cache.InvalidateObject(o)

	oldLast, _ := d.chunkPos(o.size - 1)

	firstDead := uint32(0)
	if size > 0 {
		newLast, _ := d.chunkPos(size - 1)
		firstDead = newLast + 1

		// Clip the new tail chunk if it keeps only some of its bytes:
		keep := int(size - int64(newLast)*int64(d.chunkSize))
		if keep < d.chunkSize {
			if err := d.clipChunk(o, newLast, keep); err != nil {
				return err
			}
		}
	}

	for chunkID := firstDead; chunkID <= oldLast; chunkID++ {
		if err := d.store.DeleteChunk(o.ID, chunkID); err != nil {
			return e.Wrapf(err, "failed to drop chunk %d of object %d", chunkID, o.ID)
		}
	}

	o.size = size
	return d.saveObjectHeader(o)
}

// clipChunk rewrites a stored chunk with only its first `keep` bytes.
func (d *Device) clipChunk(o *Object, chunkID uint32, keep int) error {
	data, err := d.store.ReadChunk(o.ID, chunkID)
	if err == chunkio.ErrNoSuchChunk {
		return nil
	}

	if err != nil {
		return e.Wrapf(err, "failed to read chunk %d of object %d", chunkID, o.ID)
	}

	if len(data) <= keep {
		return nil
	}

	err = d.store.WriteChunk(o.ID, chunkID, data[:keep], true)
	return e.Wrapf(err, "failed to clip chunk %d of object %d", chunkID, o.ID)
}
